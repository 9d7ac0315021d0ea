package billing

import (
	"fmt"

	"github.com/stripe/stripe-go/v74"
	portalsession "github.com/stripe/stripe-go/v74/billingportal/session"
	"github.com/stripe/stripe-go/v74/customer"
	"github.com/stripe/stripe-go/v74/invoice"
	"github.com/stripe/stripe-go/v74/setupintent"
	"github.com/stripe/stripe-go/v74/subscription"

	"huddle_backend/internal/model"
)

// InitStripe sets the Stripe API key once at startup.
func InitStripe(secretKey string) {
	stripe.Key = secretKey
}

func CreateStripeCustomer(org *model.Organizer) (*stripe.Customer, error) {
	params := &stripe.CustomerParams{
		Email: stripe.String(org.Email),
		Name:  stripe.String(org.Name),
	}
	params.AddMetadata("organizer_id", fmt.Sprintf("%d", org.ID))

	return customer.New(params)
}

// CreateStripeSubscription creates the subscription in default_incomplete
// mode so the client confirms payment (or saves a payment method during a
// trial) with the returned secret.
func CreateStripeSubscription(customerID, priceID string, trialDays int64) (*stripe.Subscription, error) {
	params := &stripe.SubscriptionParams{
		Customer: stripe.String(customerID),
		Items: []*stripe.SubscriptionItemsParams{
			{Price: stripe.String(priceID)},
		},
		PaymentBehavior: stripe.String("default_incomplete"),
		PaymentSettings: &stripe.SubscriptionPaymentSettingsParams{
			SaveDefaultPaymentMethod: stripe.String("on_subscription"),
		},
	}
	if trialDays > 0 {
		params.TrialPeriodDays = stripe.Int64(trialDays)
	}
	params.AddExpand("latest_invoice.payment_intent")
	params.AddExpand("pending_setup_intent")

	return subscription.New(params)
}

func RetrieveStripeSubscription(subscriptionID string) (*stripe.Subscription, error) {
	params := &stripe.SubscriptionParams{}
	params.AddExpand("latest_invoice.payment_intent")
	params.AddExpand("pending_setup_intent")

	return subscription.Get(subscriptionID, params)
}

// CancelStripeAtPeriodEnd requests cancellation at period end, never an
// immediate termination, so paid-through time is honored.
func CancelStripeAtPeriodEnd(subscriptionID string) (*stripe.Subscription, error) {
	return subscription.Update(subscriptionID, &stripe.SubscriptionParams{
		CancelAtPeriodEnd: stripe.Bool(true),
	})
}

// PayStripeInvoice pays an open invoice with the customer's saved payment
// method. An already-paid invoice is a success, so two concurrent confirms
// can't turn one payment into an error.
func PayStripeInvoice(invoiceID string) (*stripe.Invoice, error) {
	inv, err := invoice.Get(invoiceID, nil)
	if err != nil {
		return nil, err
	}
	if inv.Status == stripe.InvoiceStatusPaid {
		return inv, nil
	}

	return invoice.Pay(invoiceID, &stripe.InvoicePayParams{})
}

// CreateSetupIntent collects a payment method outside the subscription flow,
// for the rare trialing subscription Stripe returns without a pending setup
// intent attached.
func CreateSetupIntent(customerID string) (*stripe.SetupIntent, error) {
	return setupintent.New(&stripe.SetupIntentParams{
		Customer: stripe.String(customerID),
	})
}

func CreatePortalSession(customerID, returnURL string) (*stripe.BillingPortalSession, error) {
	return portalsession.New(&stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	})
}

// ClientSecretFromSubscription picks the secret the frontend confirms with.
// A trial subscription carries a pending setup intent, a paid one carries a
// payment intent on its first invoice; Stripe never sets both.
func ClientSecretFromSubscription(sub *stripe.Subscription) string {
	if sub.LatestInvoice != nil && sub.LatestInvoice.PaymentIntent != nil {
		return sub.LatestInvoice.PaymentIntent.ClientSecret
	}
	if sub.PendingSetupIntent != nil {
		return sub.PendingSetupIntent.ClientSecret
	}
	return ""
}
