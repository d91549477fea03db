package recordservice

import (
	"slices"

	"github.com/google/uuid"

	"github.com/divinecia/Househelp-sub000/internal/domain"
	"github.com/divinecia/Househelp-sub000/internal/fieldmap"
	"github.com/divinecia/Househelp-sub000/pkg/auth"
)

// Resource names, also used as table names and route prefixes.
const (
	Workers      = "workers"
	Homeowners   = "homeowners"
	Admins       = "admins"
	Services     = "services"
	Trainings    = "trainings"
	Reports      = "reports"
	Documents    = "documents"
	Favorites    = "favorites"
	Availability = "availability"
)

type readPolicy int

const (
	// readAny lets every authenticated caller list and fetch all rows.
	readAny readPolicy = iota
	// readOwner restricts non-admins to rows they own.
	readOwner
	readAdmin
)

// owner names the column that ties a row to a caller. bySubject rows store
// the caller's role row id, other rows store the auth user id.
type owner struct {
	column    string
	bySubject bool
}

func (o owner) id(p *auth.Principal) uuid.UUID {
	if o.bySubject {
		return p.SubjectID
	}
	return p.UserID
}

type Resource struct {
	Name   string
	Entity fieldmap.Entity
	// Owners maps a role to the column that scopes its rows.
	Owners map[domain.Role]owner
	Read   readPolicy
	// CreateRoles may create rows; admins always may.
	CreateRoles []domain.Role
	// OwnerDelete lets an owner delete their own rows.
	OwnerDelete bool
	// Filters are the query columns accepted by List.
	Filters []string
	// Required columns must be present on create.
	Required []string
	// AdminColumns are writable by admins only.
	AdminColumns []string
}

func (r *Resource) ownerFor(p *auth.Principal) (owner, bool) {
	o, ok := r.Owners[p.Role]
	return o, ok
}

// ownerColumns lists every owner column of the resource.
func (r *Resource) ownerColumns() []string {
	var cols []string
	for _, o := range r.Owners {
		if !slices.Contains(cols, o.column) {
			cols = append(cols, o.column)
		}
	}
	return cols
}

func (r *Resource) canCreate(p *auth.Principal) bool {
	return p.IsAdmin() || p.Is(r.CreateRoles...)
}

var (
	byUser    = func(column string) owner { return owner{column: column} }
	bySubject = func(column string) owner { return owner{column: column, bySubject: true} }
	allRoles  = []domain.Role{domain.RoleWorker, domain.RoleHomeowner, domain.RoleAdmin}
)

var resources = map[string]*Resource{
	Workers: {
		Name:         Workers,
		Entity:       fieldmap.Worker,
		Owners:       map[domain.Role]owner{domain.RoleWorker: byUser("user_id")},
		Read:         readAny,
		Filters:      []string{"status", "district", "gender", "skills", "user_id"},
		Required:     []string{"user_id"},
		AdminColumns: []string{"status", "rating"},
	},
	Homeowners: {
		Name:     Homeowners,
		Entity:   fieldmap.Homeowner,
		Owners:   map[domain.Role]owner{domain.RoleHomeowner: byUser("user_id")},
		Read:     readOwner,
		Filters:  []string{"district", "residence_type", "user_id"},
		Required: []string{"user_id"},
	},
	Admins: {
		Name:     Admins,
		Entity:   fieldmap.Admin,
		Owners:   map[domain.Role]owner{domain.RoleAdmin: byUser("user_id")},
		Read:     readAdmin,
		Filters:  []string{"department", "user_id"},
		Required: []string{"user_id"},
	},
	Services: {
		Name:     Services,
		Entity:   fieldmap.Service,
		Read:     readAny,
		Filters:  []string{"category", "is_active"},
		Required: []string{"name"},
	},
	Trainings: {
		Name:     Trainings,
		Entity:   fieldmap.Training,
		Read:     readAny,
		Filters:  []string{"category", "status"},
		Required: []string{"title"},
	},
	Reports: {
		Name:   Reports,
		Entity: fieldmap.Report,
		Owners: map[domain.Role]owner{
			domain.RoleWorker:    byUser("reporter_id"),
			domain.RoleHomeowner: byUser("reporter_id"),
			domain.RoleAdmin:     byUser("reporter_id"),
		},
		Read:         readOwner,
		CreateRoles:  allRoles,
		Filters:      []string{"report_type", "status", "booking_id", "reporter_id"},
		Required:     []string{"report_type", "title"},
		AdminColumns: []string{"status"},
	},
	Documents: {
		Name:   Documents,
		Entity: fieldmap.Document,
		Owners: map[domain.Role]owner{
			domain.RoleWorker:    byUser("user_id"),
			domain.RoleHomeowner: byUser("user_id"),
			domain.RoleAdmin:     byUser("user_id"),
		},
		Read:        readOwner,
		CreateRoles: allRoles,
		Filters:     []string{"document_type", "status", "user_id"},
		Required:    []string{"document_type", "file_url"},
	},
	Favorites: {
		Name:        Favorites,
		Entity:      fieldmap.Favorite,
		Owners:      map[domain.Role]owner{domain.RoleHomeowner: bySubject("homeowner_id")},
		Read:        readOwner,
		CreateRoles: []domain.Role{domain.RoleHomeowner},
		OwnerDelete: true,
		Filters:     []string{"worker_id", "homeowner_id"},
		Required:    []string{"worker_id", "homeowner_id"},
	},
	Availability: {
		Name:        Availability,
		Entity:      fieldmap.Availability,
		Owners:      map[domain.Role]owner{domain.RoleWorker: bySubject("worker_id")},
		Read:        readAny,
		CreateRoles: []domain.Role{domain.RoleWorker},
		OwnerDelete: true,
		Filters:     []string{"worker_id", "day_of_week", "is_available"},
		Required:    []string{"worker_id", "day_of_week", "start_time", "end_time"},
	},
}

// Names lists the generic resources in route order.
func Names() []string {
	return []string{Workers, Homeowners, Admins, Services, Trainings, Reports, Documents, Favorites, Availability}
}

func lookup(name string) (*Resource, error) {
	r, ok := resources[name]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return r, nil
}
