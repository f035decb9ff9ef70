package mailbox

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"time"

	"github.com/emersion/go-imap/client"
	"github.com/opentracing/opentracing-go"

	"github.com/mailboost/mailboost/config"
	"github.com/mailboost/mailboost/interfaces"
	"github.com/mailboost/mailboost/internal/enum"
	"github.com/mailboost/mailboost/internal/tracing"
)

// NewIMAPDialer builds the production dialer. Each pass gets a fresh
// connection; nothing is pooled or reused across passes.
func NewIMAPDialer(cfg *config.IMAPConfig) interfaces.IMAPDialer {
	return func(ctx context.Context) (interfaces.IMAPConnection, error) {
		span, _ := opentracing.StartSpanFromContext(ctx, "IMAPDialer.Dial")
		defer span.Finish()
		tracing.SetDefaultServiceSpanTags(ctx, span)
		span.SetTag("server", cfg.Host)
		span.SetTag("port", cfg.Port)

		serverAddr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

		dialer := &net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}

		var c *client.Client
		var err error

		if cfg.Security == enum.EmailSecurityTLS {
			tlsConfig := &tls.Config{
				ServerName: cfg.Host,
			}
			c, err = client.DialWithDialerTLS(dialer, serverAddr, tlsConfig)
		} else {
			c, err = client.DialWithDialer(dialer, serverAddr)
		}

		if err != nil {
			tracing.TraceErr(span, err)
			return nil, fmt.Errorf("failed to connect to %s: %w", serverAddr, err)
		}

		return c, nil
	}
}
