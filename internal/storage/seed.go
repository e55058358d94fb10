package storage

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xaenox/supportlens/internal/models"
)

// seedThreshold is the trace count at which seeding is skipped.
const seedThreshold = 20

type seedTrace struct {
	userMessage    string
	botResponse    string
	category       models.Category
	responseTimeMS int64
}

var seedTraces = []seedTrace{
	{"Why was I charged $49 this month? I thought I was on the $29 plan.", "Your account was upgraded to the Professional plan on the 3rd, which is billed at $49/month. If you didn't make this change, contact billing@billpro.com and we'll correct it.", models.CategoryBilling, 1240},
	{"How do I update my credit card? My old card expired.", "Go to Settings → Billing → Payment Methods and click 'Update Card'. The new card is charged on your next billing date.", models.CategoryBilling, 890},
	{"Do you offer annual billing? Is there a discount?", "Yes, annual billing is 20% cheaper than monthly. Switch from Settings → Billing → Subscription and the discount applies immediately.", models.CategoryBilling, 1050},
	{"I see a charge for 'BillPro Add-on' on my invoice. What is that?", "That is the Advanced Analytics add-on at $15/month. You can manage add-ons under Settings → Billing → Add-ons.", models.CategoryBilling, 1320},
	{"What payment methods do you accept?", "We accept Visa, Mastercard, Amex and Discover, plus ACH transfers for annual plans over $500.", models.CategoryBilling, 780},

	{"I was double charged this month. I need a refund immediately.", "I'm sorry about the double charge. Our billing team will refund the duplicate within 3-5 business days and email you a confirmation.", models.CategoryRefund, 1480},
	{"I cancelled last week but still got charged. Can I get my money back?", "A charge after cancellation shouldn't happen. Email billing@billpro.com with your cancellation confirmation and we'll refund it within 5 business days.", models.CategoryRefund, 1150},
	{"The product didn't work as advertised. I want my money back for this month.", "We review refunds for the latest billing period case by case. Send the details to billing@billpro.com and we'll respond within 2 business days.", models.CategoryRefund, 1390},
	{"Can I get a refund for the unused portion of my annual plan?", "We can offer a prorated refund for the unused months, minus any signup discount. Contact billing@billpro.com to start the request.", models.CategoryRefund, 1230},
	{"My team never used the enterprise features I paid for. I'd like a partial refund.", "Our billing team can review your usage history and work out a credit or partial refund. Reach them at billing@billpro.com.", models.CategoryRefund, 1560},

	{"I forgot my password and the reset email isn't arriving.", "Check your spam folder for mail from noreply@billpro.com, then retry after 5 minutes. If it still doesn't arrive, contact support from your registered address.", models.CategoryAccountAccess, 1020},
	{"My account got locked after too many login attempts. How do I unlock it?", "Lockouts lift automatically after 30 minutes. Resetting your password via 'Forgot Password' also unlocks the account.", models.CategoryAccountAccess, 940},
	{"I lost access to my authenticator app. Can't log in due to 2FA.", "Email security@billpro.com from your registered address with a photo ID. Once verified we'll disable 2FA so you can set up a new authenticator.", models.CategoryAccountAccess, 1110},
	{"One of my team members can't log into their seat. The password doesn't work.", "Admins can reset a member's password from Settings → Team → Members using the three-dot menu.", models.CategoryAccountAccess, 870},
	{"I keep getting logged out every time I close the browser. Is there a stay-logged-in option?", "Tick 'Keep me signed in' on the login page to stay signed in for 30 days, unless your admin enforces session timeouts.", models.CategoryAccountAccess, 760},

	{"I'd like to cancel my subscription. How do I do that?", "Cancel anytime from Settings → Billing → Subscription → Cancel Plan. Access continues until the end of the current period.", models.CategoryCancellation, 960},
	{"We're shutting down our startup. Please cancel our account and stop all charges.", "Sorry to hear that. Cancel from Settings → Billing → Subscription → Cancel Plan to stop future charges, and email billing@billpro.com about a prorated refund.", models.CategoryCancellation, 1190},
	{"Can I downgrade to the free plan instead of cancelling?", "Yes, downgrade from Settings → Billing → Subscription → Change Plan. You keep Professional features until the period ends.", models.CategoryCancellation, 850},
	{"I want to pause my subscription for 2 months while we're between projects.", "There's no formal pause, but you can downgrade to free or cancel and resubscribe later. Data is kept for 90 days after cancellation.", models.CategoryCancellation, 1280},
	{"If I cancel today, will I lose my data immediately?", "No. You keep access until the period ends and data stays read-only for 90 days, exportable from Settings → Data → Export.", models.CategoryCancellation, 1090},

	{"Does BillPro integrate with QuickBooks?", "Yes, Professional and Enterprise plans include a native QuickBooks integration under Settings → Integrations.", models.CategoryGeneralInquiry, 920},
	{"How many team seats are included in the Starter plan?", "Starter includes 3 seats, Professional 15, and Enterprise is unlimited.", models.CategoryGeneralInquiry, 810},
	{"Is there an API I can use to pull invoice data into our own system?", "Yes, a REST API is available on Professional and Enterprise plans. Generate a key under Settings → Developer → API Keys.", models.CategoryGeneralInquiry, 1030},
	{"What's the difference between the Starter and Professional plans?", "Starter covers 3 users and 100 invoices a month. Professional adds 15 users, unlimited invoices, advanced analytics and API access.", models.CategoryGeneralInquiry, 990},
	{"Does BillPro support multiple currencies?", "Yes, over 135 currencies. Set a default under Settings → General → Currency; exchange rates update daily.", models.CategoryGeneralInquiry, 880},
}

// Seed loads the demo traces unless the store already holds enough data.
// Timestamps are spread over the week before now. It returns the number of
// traces written.
func Seed(ctx context.Context, store Storage, now time.Time, rng *rand.Rand, logger *zap.Logger) (int, error) {
	existing, err := store.CountTraces(ctx)
	if err != nil {
		return 0, fmt.Errorf("seed count: %w", err)
	}
	if existing >= seedThreshold {
		logger.Info("Skipping seed, store already populated", zap.Int("existing", existing))
		return 0, nil
	}

	base := now.UTC().Add(-7 * 24 * time.Hour)
	for i, st := range seedTraces {
		offset := time.Duration(i*(20+rng.Intn(71))) * time.Minute
		trace := &models.Trace{
			ID:             uuid.NewString(),
			UserMessage:    st.userMessage,
			BotResponse:    st.botResponse,
			Category:       st.category,
			Timestamp:      models.NewTimestamp(base.Add(offset)),
			ResponseTimeMS: st.responseTimeMS,
		}
		if err := store.SaveTrace(ctx, trace); err != nil {
			return i, fmt.Errorf("seed trace %d: %w", i, err)
		}
	}

	logger.Info("Seeded traces", zap.Int("count", len(seedTraces)))
	return len(seedTraces), nil
}
