package server

import (
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	corecontrollers "github.com/aisha-ai/aisha-crm/modules/core/presentation/controllers"
	corepersistence "github.com/aisha-ai/aisha-crm/modules/core/infrastructure/persistence"
	coreservices "github.com/aisha-ai/aisha-crm/modules/core/services"
	crmcontrollers "github.com/aisha-ai/aisha-crm/modules/crm/presentation/controllers"
	crmpersistence "github.com/aisha-ai/aisha-crm/modules/crm/infrastructure/persistence"
	crmservices "github.com/aisha-ai/aisha-crm/modules/crm/services"
	profilecontrollers "github.com/aisha-ai/aisha-crm/modules/profile/presentation/controllers"
	profilepersistence "github.com/aisha-ai/aisha-crm/modules/profile/infrastructure/persistence"
	profileservices "github.com/aisha-ai/aisha-crm/modules/profile/services"
	"github.com/aisha-ai/aisha-crm/pkg/auth"
	"github.com/aisha-ai/aisha-crm/pkg/configuration"
	"github.com/aisha-ai/aisha-crm/pkg/constants"
	"github.com/aisha-ai/aisha-crm/pkg/eventbus"
	"github.com/aisha-ai/aisha-crm/pkg/middleware"
	"github.com/aisha-ai/aisha-crm/pkg/outbox"
)

type DefaultOptions struct {
	Logger        *logrus.Logger
	Configuration *configuration.Configuration
	Pool          *pgxpool.Pool
	EventBus      eventbus.EventBus
}

// Services bundles everything the server and background workers share.
type Services struct {
	Tenants   *coreservices.TenantService
	Persons   *crmservices.PersonService
	Profiles  *profileservices.ProfileService
	Publisher outbox.Publisher
}

// Default wires repositories, services and controllers into a ready server.
func Default(options *DefaultOptions) (*HTTPServer, *Services, error) {
	conf := options.Configuration

	publisher := outbox.NewPublisher()

	tenantService := coreservices.NewTenantService(corepersistence.NewTenantRepository())
	personService := crmservices.NewPersonService(
		crmpersistence.NewPersonRepository(), options.EventBus, publisher,
	)
	activityService := crmservices.NewActivityService(crmpersistence.NewActivityRepository(), publisher)
	noteService := crmservices.NewNoteService(crmpersistence.NewNoteRepository(), publisher)
	documentService := crmservices.NewDocumentService(crmpersistence.NewDocumentRepository(), publisher)
	opportunityService := crmservices.NewOpportunityService(crmpersistence.NewOpportunityRepository(), publisher)
	templateService := crmservices.NewWorkflowTemplateService(crmpersistence.NewWorkflowTemplateRepository())

	profileService := profileservices.NewProfileService(
		profilepersistence.NewProfileRepository(conf.Profile.ListLimit),
		options.Pool,
		options.Logger,
	)
	profileService.Register(options.EventBus)

	tokenManager := auth.NewTokenManager(conf.Auth.SigningKey, conf.Auth.TokenTTL)

	router := mux.NewRouter()
	router.Use(
		middleware.WithLogger(options.Logger, conf.RequestIDHeader),
		middleware.Provide(constants.PoolKey, options.Pool),
	)

	// Unauthenticated surface: liveness and metrics.
	corecontrollers.NewHealthController(options.Pool).Register(router)
	if conf.Prometheus.Enabled {
		router.Handle(conf.Prometheus.Path, promhttp.Handler())
	}

	api := router.PathPrefix("/").Subrouter()
	api.Use(middleware.Authorize(tokenManager))

	controllers := []Controller{
		corecontrollers.NewTenantController(tenantService),
		crmcontrollers.NewCRMAPIController(
			personService, activityService, noteService,
			documentService, opportunityService, templateService,
		),
		profilecontrollers.NewProfileController(profileService),
	}
	for _, c := range controllers {
		c.Register(api)
	}

	services := &Services{
		Tenants:   tenantService,
		Persons:   personService,
		Profiles:  profileService,
		Publisher: publisher,
	}
	return NewHTTPServer(router, options.Logger), services, nil
}
