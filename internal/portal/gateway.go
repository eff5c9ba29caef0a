package portal

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-campus-portal/internal/credential"
	"github.com/ovaphlow/pitchfork/service-campus-portal/internal/gateway"
	"github.com/ovaphlow/pitchfork/service-campus-portal/internal/session"
	"github.com/ovaphlow/pitchfork/service-campus-portal/internal/user"
	"github.com/ovaphlow/pitchfork/service-campus-portal/internal/user/entity"
	userrepo "github.com/ovaphlow/pitchfork/service-campus-portal/internal/user/repo"
)

// demoAccounts are seeded into the in-process gateway when a demo password
// is configured.
var demoAccounts = []user.SignupInput{
	{Role: entity.RoleStudent, Kind: credential.RegistrationNumber, Identifier: "24104156040", DisplayName: "Demo Student"},
	{Role: entity.RoleFaculty, Kind: credential.EmployeeID, Identifier: "CS123456", DisplayName: "Demo Faculty"},
	{Role: entity.RoleFaculty, Kind: credential.Email, Identifier: "faculty@campus.edu", DisplayName: "Demo Faculty (email)"},
}

// NewGateway returns the HTTP client for cfg.GatewayURL, or the placeholder
// gateway backed by an in-memory account store when no URL is configured.
func NewGateway(ctx context.Context, cfg Config, tokens *session.Service, logger *zap.SugaredLogger) (gateway.Gateway, error) {
	if cfg.GatewayURL != "" {
		logger.Infow("using remote auth gateway", "url", cfg.GatewayURL, "timeout", cfg.GatewayTimeout)
		return gateway.NewClient(cfg.GatewayURL, cfg.GatewayTimeout), nil
	}

	svc := user.NewService(userrepo.NewMemoryRepo(), nil, user.ConfigFromEnv(), logger)
	if cfg.DemoPassword != "" {
		for _, in := range demoAccounts {
			in.Password = cfg.DemoPassword
			if _, err := svc.Signup(ctx, in); err != nil && !errors.Is(err, user.ErrAccountExists) {
				return nil, fmt.Errorf("seed demo account %s: %w", in.Identifier, err)
			}
		}
		logger.Infow("seeded demo accounts", "count", len(demoAccounts))
	}
	logger.Info("using in-process placeholder auth gateway")
	return user.NewLocalGateway(svc, tokens), nil
}
