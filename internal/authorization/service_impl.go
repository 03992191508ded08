package authorization

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	obscontext "github.com/smallbiznis/cabledesk/internal/observability/context"
	"github.com/smallbiznis/cabledesk/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

const (
	ObjectSubscriber = "subscriber"
	ObjectCatalog    = "catalog"
)

const (
	ActionSubscriberView   = "subscriber.view"
	ActionSubscriberCreate = "subscriber.create"
	ActionSubscriberUpdate = "subscriber.update"
	ActionSubscriberDelete = "subscriber.delete"
	ActionSubscriberImport = "subscriber.import"
	ActionSubscriberExport = "subscriber.export"
	ActionCatalogView      = "catalog.view"
)

const (
	RoleViewer   = "viewer"
	RoleOperator = "operator"
	RoleAdmin    = "admin"
)

var Roles = []string{RoleViewer, RoleOperator, RoleAdmin}

var Module = fx.Module("authorization",
	fx.Provide(NewEnforcer),
	fx.Provide(NewService),
)

type Params struct {
	fx.In

	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
	Metrics  *metrics.Metrics `optional:"true"`
}

type ServiceImpl struct {
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
	metrics  *metrics.Metrics
}

// NewEnforcer loads policies from the casbin_rule table and seeds the role
// hierarchy viewer < operator < admin.
func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	enforcer.EnableAutoBuildRoleLinks(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	if err := enforcer.BuildRoleLinks(); err != nil {
		return nil, err
	}
	return enforcer, nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
		metrics:  p.Metrics,
	}
}

func (s *ServiceImpl) Authorize(ctx context.Context, operator obscontext.Operator, object string, action string) error {
	name := strings.TrimSpace(operator.Name)
	if name == "" {
		return ErrInvalidActor
	}
	role := strings.ToLower(strings.TrimSpace(operator.Role))
	if !validRole(role) {
		return ErrInvalidRole
	}
	object = strings.TrimSpace(object)
	if object == "" {
		return ErrInvalidObject
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return ErrInvalidAction
	}

	// The role is checked directly; nothing is written on the request path,
	// so concurrent requests claiming different roles cannot see each other.
	allowed, err := s.enforcer.Enforce(roleName(role), object, action)
	if err != nil {
		return err
	}
	if !allowed {
		s.metrics.RecordAuthorizationDenied(ctx, role, action)
		s.log.Warn("authorization denied",
			zap.String("operator", name),
			zap.String("role", role),
			zap.String("action", action),
		)
		return ErrForbidden
	}
	return nil
}

func validRole(role string) bool {
	for _, r := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

func roleName(role string) string {
	return fmt.Sprintf("role:%s", role)
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	policies := [][]string{
		{roleName(RoleViewer), ObjectSubscriber, ActionSubscriberView},
		{roleName(RoleViewer), ObjectSubscriber, ActionSubscriberExport},
		{roleName(RoleViewer), ObjectCatalog, ActionCatalogView},

		{roleName(RoleOperator), ObjectSubscriber, ActionSubscriberCreate},
		{roleName(RoleOperator), ObjectSubscriber, ActionSubscriberUpdate},
		{roleName(RoleOperator), ObjectSubscriber, ActionSubscriberImport},

		{roleName(RoleAdmin), ObjectSubscriber, ActionSubscriberDelete},
	}
	for _, policy := range policies {
		if _, err := enforcer.AddPolicy(policy); err != nil {
			return err
		}
	}

	inherits := [][]string{
		{roleName(RoleOperator), roleName(RoleViewer)},
		{roleName(RoleAdmin), roleName(RoleOperator)},
	}
	for _, link := range inherits {
		if _, err := enforcer.AddGroupingPolicy(link); err != nil {
			return err
		}
	}
	return nil
}
