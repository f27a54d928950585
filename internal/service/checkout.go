package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/localharvest/checkout/internal/client"
	"github.com/localharvest/checkout/internal/domain"
	"github.com/localharvest/checkout/internal/event"
	"github.com/localharvest/checkout/internal/repository"
	apperrors "github.com/localharvest/checkout/pkg/errors"
	"github.com/localharvest/checkout/pkg/httpclient"
)

// CircuitOpenFallback is the circuit breaker fallback for downstream calls.
// When the circuit is open it returns a structured error with a retry hint
// instead of letting the raw ErrCircuitOpen propagate.
func CircuitOpenFallback(_ context.Context, _ error) (*http.Response, error) {
	return nil, apperrors.ServiceUnavailable("downstream service is temporarily unavailable, please retry after 30 seconds")
}

// OrderGateway prices carts and accepts assembled orders.
type OrderGateway interface {
	GetTotals(ctx context.Context, input client.TotalsRequest) (*domain.CheckoutTotals, error)
	SubmitOrder(ctx context.Context, input client.SubmitOrderRequest) (string, error)
}

// ShopperIdentity identifies who is driving a checkout: an authenticated
// customer or a guest holding an opaque token. Exactly one side is set.
type ShopperIdentity struct {
	CustomerID string
	GuestToken string
}

// CheckoutService implements the checkout wizard over a cart snapshot:
// session lifecycle, step navigation, fulfillment selection, address
// handling, totals, and order placement.
type CheckoutService struct {
	repo        repository.CheckoutRepository
	carts       repository.CartSnapshotRepository
	orders      OrderGateway
	addresses   *AddressResolver
	fulfillment *FulfillmentService
	pickup      *PickupResolver
	producer    *event.Producer
	logger      *slog.Logger
	sessionTTL  time.Duration
}

// NewCheckoutService creates a new checkout service.
func NewCheckoutService(
	repo repository.CheckoutRepository,
	carts repository.CartSnapshotRepository,
	orders OrderGateway,
	addresses *AddressResolver,
	fulfillment *FulfillmentService,
	pickup *PickupResolver,
	producer *event.Producer,
	logger *slog.Logger,
	sessionTTL time.Duration,
) *CheckoutService {
	return &CheckoutService{
		repo:        repo,
		carts:       carts,
		orders:      orders,
		addresses:   addresses,
		fulfillment: fulfillment,
		pickup:      pickup,
		producer:    producer,
		logger:      logger,
		sessionTTL:  sessionTTL,
	}
}

// StartCheckoutInput is the cart snapshot and shopper identity a checkout
// run begins from.
type StartCheckoutInput struct {
	Cart     *domain.Cart
	Identity ShopperIdentity
}

// StartCheckout mirrors the cart snapshot, then creates a new session on the
// contact step, or resumes the cart's existing active session. Authenticated
// customers get their default saved address pre-selected for shipping.
func (s *CheckoutService) StartCheckout(ctx context.Context, input StartCheckoutInput) (*domain.CheckoutSession, error) {
	if input.Cart == nil {
		return nil, apperrors.InvalidInput("cart is required")
	}
	if input.Cart.ID == "" {
		return nil, apperrors.InvalidInput("cart id is required")
	}
	if len(input.Cart.Items) == 0 {
		return nil, apperrors.InvalidInput("cart has no items")
	}
	if err := validateIdentity(input.Identity); err != nil {
		return nil, err
	}
	for i, item := range input.Cart.Items {
		if item.ProductID == "" {
			return nil, apperrors.InvalidInput(fmt.Sprintf("item %d: product_id is required", i))
		}
		if item.Quantity <= 0 {
			return nil, apperrors.InvalidInput(fmt.Sprintf("item %d: quantity must be greater than 0", i))
		}
	}

	input.Cart.CustomerID = input.Identity.CustomerID
	input.Cart.GuestToken = input.Identity.GuestToken

	if err := s.carts.Save(ctx, input.Cart); err != nil {
		return nil, fmt.Errorf("save cart snapshot: %w", err)
	}

	if existing, err := s.repo.GetActiveByCartID(ctx, input.Cart.ID); err == nil {
		if err := authorize(existing, input.Identity); err == nil && !existing.IsExpired() {
			s.logger.InfoContext(ctx, "resuming active checkout session",
				slog.String("checkout_id", existing.ID),
				slog.String("cart_id", input.Cart.ID),
			)
			return existing, nil
		}
	}

	now := time.Now().UTC()
	session := &domain.CheckoutSession{
		ID:         uuid.New().String(),
		CartID:     input.Cart.ID,
		CustomerID: input.Identity.CustomerID,
		GuestToken: input.Identity.GuestToken,
		Status:     domain.StatusActive,
		Step:       domain.StepContact,
		ExpiresAt:  now.Add(s.sessionTTL),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	// Pre-select the customer's default address. Address book trouble must
	// never block starting a checkout; guests always enter manually.
	if session.CustomerID != "" {
		saved := httpclient.FetchWithFallback(ctx, s.logger, "saved addresses",
			func(ctx context.Context) ([]domain.UserAddress, error) {
				return s.addresses.ListAddresses(ctx, session.CustomerID)
			}, nil)
		if def := DefaultSelection(saved); def != nil {
			ApplyShippingSelection(session, def)
		}
	}

	if err := s.repo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}

	// Publish event; log but do not fail on error.
	if err := s.producer.PublishCheckoutStarted(ctx, session, input.Cart); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish checkout.started event",
			slog.String("checkout_id", session.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "checkout session started",
		slog.String("checkout_id", session.ID),
		slog.String("cart_id", input.Cart.ID),
		slog.Bool("guest", session.IsGuest()),
	)

	return session, nil
}

// GetSession retrieves a checkout session, enforcing ownership and expiry.
func (s *CheckoutService) GetSession(ctx context.Context, sessionID string, ident ShopperIdentity) (*domain.CheckoutSession, error) {
	session, err := s.repo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get checkout session: %w", err)
	}
	if err := authorize(session, ident); err != nil {
		return nil, err
	}
	if err := s.expireIfNeeded(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// UpdateContact sets the contact step's fields.
func (s *CheckoutService) UpdateContact(ctx context.Context, sessionID string, ident ShopperIdentity, contact domain.ContactInfo) (*domain.CheckoutSession, error) {
	session, err := s.loadActive(ctx, sessionID, ident)
	if err != nil {
		return nil, err
	}

	session.Contact = contact

	if err := s.repo.Update(ctx, session); err != nil {
		return nil, fmt.Errorf("update checkout contact: %w", err)
	}

	return session, nil
}

// FulfillmentOptions computes the fulfillment decision surface for the
// session's cart.
func (s *CheckoutService) FulfillmentOptions(ctx context.Context, sessionID string, ident ShopperIdentity) (*FulfillmentOptions, error) {
	session, cart, err := s.loadActiveWithCart(ctx, sessionID, ident)
	if err != nil {
		return nil, err
	}
	return s.fulfillment.Options(ctx, cart.Items, session.FulfillmentMethod), nil
}

// SelectFulfillmentMethod records the chosen fulfillment method after
// checking every store in the cart can honor it.
func (s *CheckoutService) SelectFulfillmentMethod(ctx context.Context, sessionID string, ident ShopperIdentity, method string) (*domain.CheckoutSession, error) {
	if method != domain.MethodPickup && method != domain.MethodDelivery {
		return nil, apperrors.InvalidInput("fulfillment method must be pickup or delivery")
	}

	session, cart, err := s.loadActiveWithCart(ctx, sessionID, ident)
	if err != nil {
		return nil, err
	}

	analysis := s.fulfillment.Analyze(ctx, cart.Items)
	validation := s.fulfillment.ValidateMethod(analysis, method)
	if !validation.IsValid {
		return nil, apperrors.InvalidInput(fmt.Sprintf(
			"fulfillment method %s is not supported by stores: %s",
			method, strings.Join(validation.InvalidStoreIDs, ", "),
		))
	}

	session.FulfillmentMethod = method

	if err := s.repo.Update(ctx, session); err != nil {
		return nil, fmt.Errorf("update checkout fulfillment method: %w", err)
	}

	s.logger.InfoContext(ctx, "fulfillment method selected",
		slog.String("checkout_id", sessionID),
		slog.String("method", method),
	)

	return session, nil
}

// PickupOptions resolves the pickup locations for every store in the
// session's cart.
func (s *CheckoutService) PickupOptions(ctx context.Context, sessionID string, ident ShopperIdentity) (*domain.CartStoreAddresses, error) {
	_, cart, err := s.loadActiveWithCart(ctx, sessionID, ident)
	if err != nil {
		return nil, err
	}
	return s.pickup.Resolve(ctx, cart.Items), nil
}

// SavedAddresses lists the customer's address book entries along with the id
// of the one the default-selection policy would pick. Guests get an empty
// list.
func (s *CheckoutService) SavedAddresses(ctx context.Context, sessionID string, ident ShopperIdentity) ([]domain.UserAddress, string, error) {
	session, err := s.loadActive(ctx, sessionID, ident)
	if err != nil {
		return nil, "", err
	}
	if session.IsGuest() {
		return []domain.UserAddress{}, "", nil
	}

	addresses, err := s.addresses.ListAddresses(ctx, session.CustomerID)
	if err != nil {
		return nil, "", fmt.Errorf("list saved addresses: %w", err)
	}

	defaultID := ""
	if def := DefaultSelection(addresses); def != nil {
		defaultID = def.ID
	}

	return addresses, defaultID, nil
}

// SelectShippingAddress picks a saved address for shipping and populates the
// shipping fields from it.
func (s *CheckoutService) SelectShippingAddress(ctx context.Context, sessionID string, ident ShopperIdentity, addressID string) (*domain.CheckoutSession, error) {
	session, err := s.loadActive(ctx, sessionID, ident)
	if err != nil {
		return nil, err
	}
	if session.IsGuest() {
		return nil, apperrors.InvalidInput("guest checkout uses manual address entry")
	}

	addresses, err := s.addresses.ListAddresses(ctx, session.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("list saved addresses: %w", err)
	}

	addr, err := FindAddress(addresses, addressID)
	if err != nil {
		return nil, err
	}

	ApplyShippingSelection(session, addr)

	if err := s.repo.Update(ctx, session); err != nil {
		return nil, fmt.Errorf("update checkout shipping selection: %w", err)
	}

	return session, nil
}

// UpdateShipping records manually entered shipping fields.
func (s *CheckoutService) UpdateShipping(ctx context.Context, sessionID string, ident ShopperIdentity, info domain.ShippingInfo) (*domain.CheckoutSession, error) {
	session, err := s.loadActive(ctx, sessionID, ident)
	if err != nil {
		return nil, err
	}

	ApplyManualShipping(session, info)

	if err := s.repo.Update(ctx, session); err != nil {
		return nil, fmt.Errorf("update checkout shipping: %w", err)
	}

	return session, nil
}

// SetBillingSameAsShipping toggles the billing-same-as-shipping flag,
// copying the shipping fields when turned on.
func (s *CheckoutService) SetBillingSameAsShipping(ctx context.Context, sessionID string, ident ShopperIdentity, same bool) (*domain.CheckoutSession, error) {
	session, err := s.loadActive(ctx, sessionID, ident)
	if err != nil {
		return nil, err
	}

	ApplyBillingSameAsShipping(session, same)

	if err := s.repo.Update(ctx, session); err != nil {
		return nil, fmt.Errorf("update checkout billing flag: %w", err)
	}

	return session, nil
}

// UpdateBilling records manually entered billing fields and clears the
// same-as-shipping flag.
func (s *CheckoutService) UpdateBilling(ctx context.Context, sessionID string, ident ShopperIdentity, info domain.ShippingInfo) (*domain.CheckoutSession, error) {
	session, err := s.loadActive(ctx, sessionID, ident)
	if err != nil {
		return nil, err
	}

	info.Country = domain.NormalizeCountry(info.Country)
	session.BillingSameAsShipping = false
	session.SelectedBillingAddressID = ""
	session.Billing = info

	if err := s.repo.Update(ctx, session); err != nil {
		return nil, fmt.Errorf("update checkout billing: %w", err)
	}

	return session, nil
}

// UpdatePayment records the payment step's fields. Card validation happens
// on step advance and at order placement; the fields are never persisted
// beyond the session row's lifetime and card data never reaches the session
// row at all.
func (s *CheckoutService) UpdatePayment(ctx context.Context, sessionID string, ident ShopperIdentity, payment domain.PaymentInfo) (*domain.CheckoutSession, error) {
	session, err := s.loadActive(ctx, sessionID, ident)
	if err != nil {
		return nil, err
	}

	session.Payment = payment

	if err := s.repo.Update(ctx, session); err != nil {
		return nil, fmt.Errorf("update checkout payment: %w", err)
	}

	return session, nil
}

// AdvanceStep moves the wizard forward one step, rejecting the move with the
// current step's missing fields when it is incomplete.
func (s *CheckoutService) AdvanceStep(ctx context.Context, sessionID string, ident ShopperIdentity) (*domain.CheckoutSession, error) {
	session, err := s.loadActive(ctx, sessionID, ident)
	if err != nil {
		return nil, err
	}

	if problems := session.ValidateStep(session.Step); len(problems) > 0 {
		return nil, apperrors.InvalidInput(fmt.Sprintf(
			"%s step is incomplete: %s", session.Step, strings.Join(problems, ", "),
		))
	}

	next := domain.NextStep(session.Step)
	if next == "" {
		return nil, apperrors.Conflict("checkout is already on the final step")
	}

	session.Step = next

	if err := s.repo.Update(ctx, session); err != nil {
		return nil, fmt.Errorf("update checkout step: %w", err)
	}

	return session, nil
}

// GoToStep jumps to a wizard step. Backward navigation is always allowed;
// forward navigation requires every step in between to be complete.
func (s *CheckoutService) GoToStep(ctx context.Context, sessionID string, ident ShopperIdentity, step string) (*domain.CheckoutSession, error) {
	if !domain.IsValidStep(step) {
		return nil, apperrors.InvalidInput("unknown checkout step: " + step)
	}

	session, err := s.loadActive(ctx, sessionID, ident)
	if err != nil {
		return nil, err
	}

	current := domain.StepIndex(session.Step)
	target := domain.StepIndex(step)

	if target > current {
		steps := domain.Steps()
		for i := current; i < target; i++ {
			if problems := session.ValidateStep(steps[i]); len(problems) > 0 {
				return nil, apperrors.InvalidInput(fmt.Sprintf(
					"%s step is incomplete: %s", steps[i], strings.Join(problems, ", "),
				))
			}
		}
	}

	session.Step = step

	if err := s.repo.Update(ctx, session); err != nil {
		return nil, fmt.Errorf("update checkout step: %w", err)
	}

	return session, nil
}

// RefreshTotals asks the order service to price the session's cart and
// stores the result on the session.
func (s *CheckoutService) RefreshTotals(ctx context.Context, sessionID string, ident ShopperIdentity) (*domain.CheckoutSession, error) {
	session, err := s.loadActive(ctx, sessionID, ident)
	if err != nil {
		return nil, err
	}

	totals, err := s.orders.GetTotals(ctx, client.TotalsRequest{
		CartID:            session.CartID,
		CustomerID:        session.CustomerID,
		GuestToken:        session.GuestToken,
		ShippingAddressID: session.SelectedShippingAddressID,
		BillingAddressID:  session.SelectedBillingAddressID,
		FulfillmentMethod: session.FulfillmentMethod,
	})
	if err != nil {
		return nil, fmt.Errorf("get checkout totals: %w", err)
	}

	session.Totals = totals

	if err := s.repo.Update(ctx, session); err != nil {
		return nil, fmt.Errorf("update checkout totals: %w", err)
	}

	return session, nil
}

// PlaceOrder submits the assembled order. The session must be on the review
// step with every prior step complete. Submission failure keeps the session
// active so the shopper can retry; success completes it.
func (s *CheckoutService) PlaceOrder(ctx context.Context, sessionID string, ident ShopperIdentity) (*domain.CheckoutSession, error) {
	session, err := s.loadActive(ctx, sessionID, ident)
	if err != nil {
		return nil, err
	}

	if !session.CanPlaceOrder() {
		problems := session.ValidateStep(domain.StepReview)
		if session.Step != domain.StepReview {
			return nil, apperrors.InvalidInput("order can only be placed from the review step")
		}
		return nil, apperrors.InvalidInput("checkout is incomplete: " + strings.Join(problems, ", "))
	}

	if session.Totals == nil {
		refreshed, err := s.RefreshTotals(ctx, sessionID, ident)
		if err != nil {
			return nil, err
		}
		session = refreshed
	}

	orderID, err := s.orders.SubmitOrder(ctx, client.SubmitOrderRequest{
		CartID:            session.CartID,
		CustomerID:        session.CustomerID,
		GuestToken:        session.GuestToken,
		FulfillmentMethod: session.FulfillmentMethod,
		Contact:           session.Contact,
		ShippingAddress:   session.Shipping,
		BillingAddress:    session.Billing,
		Payment:           session.Payment,
		Totals:            *session.Totals,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "order submission failed",
			slog.String("checkout_id", session.ID),
			slog.String("error", err.Error()),
		)

		// The session stays active so the shopper can fix the problem and
		// retry; only the failure reason is recorded.
		session.FailureReason = "order submission failed"
		if updateErr := s.repo.Update(ctx, session); updateErr != nil {
			s.logger.ErrorContext(ctx, "failed to record order failure",
				slog.String("checkout_id", session.ID),
				slog.String("error", updateErr.Error()),
			)
		}

		if pubErr := s.producer.PublishCheckoutFailed(ctx, session, session.FailureReason); pubErr != nil {
			s.logger.ErrorContext(ctx, "failed to publish checkout.failed event",
				slog.String("checkout_id", session.ID),
				slog.String("error", pubErr.Error()),
			)
		}

		return nil, apperrors.OrderFailed("your order could not be processed, please try again")
	}

	session.OrderID = orderID
	session.Status = domain.StatusCompleted
	session.FailureReason = ""
	session.Payment = domain.PaymentInfo{}

	if err := s.repo.Update(ctx, session); err != nil {
		return nil, fmt.Errorf("complete checkout session: %w", err)
	}

	if err := s.carts.Delete(ctx, session.CartID); err != nil {
		s.logger.WarnContext(ctx, "failed to delete cart snapshot",
			slog.String("cart_id", session.CartID),
			slog.String("error", err.Error()),
		)
	}

	if err := s.producer.PublishCheckoutCompleted(ctx, session); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish checkout.completed event",
			slog.String("checkout_id", session.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "checkout completed",
		slog.String("checkout_id", session.ID),
		slog.String("order_id", orderID),
	)

	return session, nil
}

// SetDefaultAddress forwards the default-address signal to the user service.
func (s *CheckoutService) SetDefaultAddress(ctx context.Context, sessionID string, ident ShopperIdentity, addressID string) error {
	session, err := s.loadActive(ctx, sessionID, ident)
	if err != nil {
		return err
	}
	if session.IsGuest() {
		return apperrors.InvalidInput("guests have no saved addresses")
	}
	return s.addresses.SetDefaultAddress(ctx, session.CustomerID, addressID)
}

// ExpireStale marks every overdue non-terminal session as expired and
// returns how many were transitioned. Intended to run periodically.
func (s *CheckoutService) ExpireStale(ctx context.Context) (int, error) {
	sessions, err := s.repo.ListExpired(ctx, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("list expired sessions: %w", err)
	}

	expired := 0
	for i := range sessions {
		session := sessions[i]
		session.Status = domain.StatusExpired
		if err := s.repo.Update(ctx, &session); err != nil {
			s.logger.ErrorContext(ctx, "failed to expire checkout session",
				slog.String("checkout_id", session.ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		expired++
	}

	if expired > 0 {
		s.logger.InfoContext(ctx, "expired stale checkout sessions",
			slog.Int("count", expired),
		)
	}

	return expired, nil
}

// loadActive fetches a session and verifies it is owned by the caller,
// unexpired, and not in a terminal state.
func (s *CheckoutService) loadActive(ctx context.Context, sessionID string, ident ShopperIdentity) (*domain.CheckoutSession, error) {
	session, err := s.repo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get checkout session: %w", err)
	}
	if err := authorize(session, ident); err != nil {
		return nil, err
	}
	if err := s.expireIfNeeded(ctx, session); err != nil {
		return nil, err
	}
	if session.IsTerminal() {
		return nil, apperrors.Conflict("checkout session is " + session.Status)
	}
	return session, nil
}

// loadActiveWithCart additionally loads the session's cart snapshot.
func (s *CheckoutService) loadActiveWithCart(ctx context.Context, sessionID string, ident ShopperIdentity) (*domain.CheckoutSession, *domain.Cart, error) {
	session, err := s.loadActive(ctx, sessionID, ident)
	if err != nil {
		return nil, nil, err
	}

	cart, err := s.carts.Get(ctx, session.CartID)
	if err != nil {
		return nil, nil, fmt.Errorf("get cart snapshot: %w", err)
	}

	return session, cart, nil
}

// expireIfNeeded transitions an overdue session to expired and reports the
// expiry as an error.
func (s *CheckoutService) expireIfNeeded(ctx context.Context, session *domain.CheckoutSession) error {
	if session.IsTerminal() || !session.IsExpired() {
		return nil
	}

	session.Status = domain.StatusExpired
	if err := s.repo.Update(ctx, session); err != nil {
		s.logger.ErrorContext(ctx, "failed to update expired checkout session",
			slog.String("checkout_id", session.ID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("update expired checkout session: %w", err)
	}

	return apperrors.Gone("checkout session has expired")
}

// validateIdentity requires exactly one of customer id or guest token.
func validateIdentity(ident ShopperIdentity) error {
	switch {
	case ident.CustomerID == "" && ident.GuestToken == "":
		return apperrors.Unauthorized("a customer id or guest token is required")
	case ident.CustomerID != "" && ident.GuestToken != "":
		return apperrors.InvalidInput("customer id and guest token are mutually exclusive")
	default:
		return nil
	}
}

// authorize checks that the caller owns the session.
func authorize(session *domain.CheckoutSession, ident ShopperIdentity) error {
	if session.CustomerID != "" {
		if ident.CustomerID == session.CustomerID {
			return nil
		}
	} else if session.GuestToken != "" && ident.GuestToken == session.GuestToken {
		return nil
	}
	return apperrors.Forbidden("checkout session does not belong to this shopper")
}
