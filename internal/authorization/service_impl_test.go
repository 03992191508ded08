package authorization

import (
	"context"
	"sync"
	"testing"

	"github.com/casbin/casbin/v2"
	obscontext "github.com/smallbiznis/cabledesk/internal/observability/context"
	"github.com/smallbiznis/cabledesk/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) Service {
	t.Helper()
	svc, _ := newTestServiceWithEnforcer(t)
	return svc
}

func newTestServiceWithEnforcer(t *testing.T) (Service, *casbin.SyncedEnforcer) {
	t.Helper()
	conn, err := db.NewTest()
	require.NoError(t, err)

	enforcer, err := NewEnforcer(conn)
	require.NoError(t, err)
	return NewService(Params{Log: zap.NewNop(), Enforcer: enforcer}), enforcer
}

func TestRoleMatrix(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		role    string
		action  string
		allowed bool
	}{
		{RoleViewer, ActionSubscriberView, true},
		{RoleViewer, ActionSubscriberExport, true},
		{RoleViewer, ActionSubscriberCreate, false},
		{RoleViewer, ActionSubscriberDelete, false},
		{RoleOperator, ActionSubscriberView, true},
		{RoleOperator, ActionSubscriberCreate, true},
		{RoleOperator, ActionSubscriberImport, true},
		{RoleOperator, ActionSubscriberDelete, false},
		{RoleAdmin, ActionSubscriberUpdate, true},
		{RoleAdmin, ActionSubscriberDelete, true},
	}

	for _, tc := range cases {
		err := svc.Authorize(ctx, obscontext.Operator{Name: "ravi-" + tc.role, Role: tc.role}, ObjectSubscriber, tc.action)
		if tc.allowed {
			assert.NoError(t, err, "%s %s", tc.role, tc.action)
		} else {
			assert.ErrorIs(t, err, ErrForbidden, "%s %s", tc.role, tc.action)
		}
	}
}

func TestRoleChangeTakesEffectImmediately(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Authorize(ctx, obscontext.Operator{Name: "meera", Role: RoleAdmin}, ObjectSubscriber, ActionSubscriberDelete))

	err := svc.Authorize(ctx, obscontext.Operator{Name: "meera", Role: RoleViewer}, ObjectSubscriber, ActionSubscriberDelete)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestAuthorizeDoesNotPersistOperatorRoles(t *testing.T) {
	svc, enforcer := newTestServiceWithEnforcer(t)
	ctx := context.Background()

	require.NoError(t, svc.Authorize(ctx, obscontext.Operator{Name: "meera", Role: RoleAdmin}, ObjectSubscriber, ActionSubscriberView))

	rules, err := enforcer.GetFilteredGroupingPolicy(0, "operator:meera")
	require.NoError(t, err)
	assert.Empty(t, rules)
}

func TestConcurrentRolesForSameOperator(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 40)
	for i := range errs {
		role := RoleAdmin
		if i%2 == 1 {
			role = RoleViewer
		}
		wg.Add(1)
		go func(i int, role string) {
			defer wg.Done()
			errs[i] = svc.Authorize(ctx, obscontext.Operator{Name: "meera", Role: role}, ObjectSubscriber, ActionSubscriberDelete)
		}(i, role)
	}
	wg.Wait()

	for i, err := range errs {
		if i%2 == 1 {
			assert.ErrorIs(t, err, ErrForbidden, "call %d", i)
		} else {
			assert.NoError(t, err, "call %d", i)
		}
	}
}

func TestAuthorizeRejectsBadInput(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	assert.ErrorIs(t, svc.Authorize(ctx, obscontext.Operator{Role: RoleAdmin}, ObjectSubscriber, ActionSubscriberView), ErrInvalidActor)
	assert.ErrorIs(t, svc.Authorize(ctx, obscontext.Operator{Name: "x", Role: "root"}, ObjectSubscriber, ActionSubscriberView), ErrInvalidRole)
	assert.ErrorIs(t, svc.Authorize(ctx, obscontext.Operator{Name: "x", Role: RoleViewer}, "", ActionSubscriberView), ErrInvalidObject)
	assert.ErrorIs(t, svc.Authorize(ctx, obscontext.Operator{Name: "x", Role: RoleViewer}, ObjectSubscriber, " "), ErrInvalidAction)
}
