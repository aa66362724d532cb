package maintenance

import (
	"context"
	"time"
)

// ReportLinkTTL is how long a report download link stays valid
const ReportLinkTTL = 15 * time.Minute

// ReportVerifier checks that a completion report reference names a stored object
type ReportVerifier interface {
	Exists(ctx context.Context, ref string) (bool, error)
}

// ReportLinker hands out temporary download links to stored reports.
// A verifier that also implements it enables OrderService.ReportLink.
type ReportLinker interface {
	DownloadURL(ctx context.Context, ref string, ttl time.Duration) (string, time.Time, error)
}

// ReportLinkResponse is a temporary link to the report of a completed order
type ReportLinkResponse struct {
	OrderID   string    `json:"order_id"`
	ReportRef string    `json:"report_ref"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}
