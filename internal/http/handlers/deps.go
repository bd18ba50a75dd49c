package handlers

import (
	"github.com/jmoiron/sqlx"

	"medicart/internal/config"
	"medicart/internal/events"
	applog "medicart/internal/log"
	"medicart/internal/notify"
	"medicart/internal/repos"
	"medicart/internal/services"
)

type Deps struct {
	CategoryHandler     *CategoryHandler
	ProductHandler      *ProductHandler
	InventoryHandler    *InventoryHandler
	SearchHandler       *SearchHandler
	CartHandler         *CartHandler
	OrderHandler        *OrderHandler
	WishlistHandler     *WishlistHandler
	SalesHandler        *SalesHandler
	ReportHandler       *ReportHandler
	RequestHandler      *RequestHandler
	NotificationHandler *NotificationHandler
	AdminHandler        *AdminHandler
	EventsHandler       *EventsHandler

	Store   *repos.Store
	Bus     *events.Bus
	Reports *services.ReportService
	Flags   *services.FlagService
}

// sender picks the WhatsApp client when credentials are present.
func sender(cfg config.Config) notify.Sender {
	if cfg.WhatsAppAPIKey == "" || cfg.WhatsAppPhoneNumberID == "" {
		return notify.Noop{}
	}
	w := notify.NewWhatsApp(cfg.WhatsAppAPIKey, cfg.WhatsAppPhone, cfg.WhatsAppPhoneNumberID, cfg.WhatsAppURL)
	if w.TestMode() {
		applog.Info(nil, "whatsapp.test_mode", map[string]any{"phone": cfg.WhatsAppPhone})
	}
	return w
}

func NewDeps(db *sqlx.DB, cfg config.Config, auth *services.AuthService) *Deps {
	store := repos.NewStore(db)
	bus := events.NewBus()
	alerts := sender(cfg)

	catalogSvc := services.NewCatalogService(store, alerts)
	invSvc := services.NewInventoryService(store, bus)
	cartSvc := services.NewCartService(store.Carts, store.Products)
	orderSvc := services.NewOrderService(store, invSvc, alerts)
	wishSvc := services.NewWishlistService(store.Wishlists)
	reportSvc := services.NewReportService(store, bus)
	salesSvc := services.NewSalesService(store, invSvc, reportSvc, bus)
	reqSvc := services.NewRequestService(store, alerts, bus)
	noteSvc := services.NewNotificationService(store.Notifications)
	flagSvc := services.NewFlagService(store.Flags)
	custSvc := services.NewCustomerService(store)

	return &Deps{
		CategoryHandler:     &CategoryHandler{Catalog: catalogSvc},
		ProductHandler:      &ProductHandler{Catalog: catalogSvc, Inv: invSvc},
		InventoryHandler:    &InventoryHandler{Inv: invSvc},
		SearchHandler:       &SearchHandler{Catalog: catalogSvc},
		CartHandler:         &CartHandler{Cart: cartSvc, Secure: cfg.CookieSecure},
		OrderHandler:        &OrderHandler{Cart: cartSvc, Order: orderSvc, Auth: auth, Secure: cfg.CookieSecure},
		WishlistHandler:     &WishlistHandler{Wish: wishSvc, Secure: cfg.CookieSecure},
		SalesHandler:        &SalesHandler{Sales: salesSvc, Inv: invSvc},
		ReportHandler:       &ReportHandler{Reports: reportSvc},
		RequestHandler:      &RequestHandler{Requests: reqSvc},
		NotificationHandler: &NotificationHandler{Notes: noteSvc},
		AdminHandler: &AdminHandler{
			Orders: orderSvc, Inv: invSvc, Catalog: catalogSvc, Customers: custSvc,
			Flags: flagSvc, Requests: reqSvc, Notes: noteSvc,
		},
		EventsHandler: &EventsHandler{Bus: bus},

		Store:   store,
		Bus:     bus,
		Reports: reportSvc,
		Flags:   flagSvc,
	}
}
