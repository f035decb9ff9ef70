package orders

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/opentracing/opentracing-go"
	tracingLog "github.com/opentracing/opentracing-go/log"
	"github.com/pkg/errors"
	"golang.org/x/net/context"
	"golang.org/x/time/rate"

	"github.com/mailboost/mailboost/config"
	"github.com/mailboost/mailboost/dto"
	"github.com/mailboost/mailboost/interfaces"
	"github.com/mailboost/mailboost/internal/enum"
	"github.com/mailboost/mailboost/internal/logger"
	"github.com/mailboost/mailboost/internal/tracing"
)

// panelService talks to the boost panel API: one endpoint, form-encoded
// POST, action selects the operation.
type panelService struct {
	cfg        *config.PanelConfig
	log        logger.Logger
	httpClient *http.Client
	// limiter spaces consecutive orders at one per configured delay, which
	// is the panel's implicit rate limit.
	limiter *rate.Limiter
}

func NewPanelService(cfg *config.PanelConfig, log logger.Logger) interfaces.PanelService {
	return &panelService{
		cfg:        cfg,
		log:        log,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Every(cfg.OrderDelay), 1),
	}
}

// PlaceOrder dispatches one boost order and folds every failure mode into
// the returned outcome. Order placement is best effort: a lost order is
// logged and reconciled by hand, it must never abort the rest of the pass.
// There is no retry here; the email is acknowledged either way.
func (s *panelService) PlaceOrder(ctx context.Context, serviceID int, link string, quantity int) dto.OrderOutcome {
	span, ctx := opentracing.StartSpanFromContext(ctx, "PanelService.PlaceOrder")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("service", serviceID)
	span.SetTag("link", link)
	span.SetTag("quantity", quantity)

	if err := s.limiter.Wait(ctx); err != nil {
		tracing.TraceErr(span, err)
		return dto.OrderOutcome{Kind: enum.OrderFailed, Reason: err.Error()}
	}

	params := url.Values{}
	params.Add("key", s.cfg.APIKey)
	params.Add("action", "add")
	params.Add("service", strconv.Itoa(serviceID))
	params.Add("link", link)
	params.Add("quantity", strconv.Itoa(quantity))

	s.log.Infof("Placing panel order: service=%d link=%s quantity=%d", serviceID, link, quantity)

	body, err := s.postForm(ctx, params)
	if err != nil {
		tracing.TraceErr(span, err)
		return dto.OrderOutcome{Kind: enum.OrderFailed, Reason: err.Error()}
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		span.LogFields(tracingLog.String("raw_response", string(body)))
		return dto.OrderOutcome{Kind: enum.OrderUnparsed, Raw: string(body)}
	}

	tracing.LogObjectAsJson(span, "response", payload)
	return dto.OrderOutcome{Kind: enum.OrderPlaced, Payload: payload}
}

// Balance queries the panel account balance.
func (s *panelService) Balance(ctx context.Context) (*dto.PanelBalance, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "PanelService.Balance")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	params := url.Values{}
	params.Add("key", s.cfg.APIKey)
	params.Add("action", "balance")

	body, err := s.postForm(ctx, params)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	var balance dto.PanelBalance
	if err := json.Unmarshal(body, &balance); err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrapf(err, "unparsable balance response: %q", string(body))
	}

	return &balance, nil
}

// OrderStatus queries the panel for the state of a previously placed order.
func (s *panelService) OrderStatus(ctx context.Context, panelOrderID int64) (*dto.PanelOrderStatus, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "PanelService.OrderStatus")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("panel_order_id", panelOrderID)

	params := url.Values{}
	params.Add("key", s.cfg.APIKey)
	params.Add("action", "status")
	params.Add("order", strconv.FormatInt(panelOrderID, 10))

	body, err := s.postForm(ctx, params)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	var status dto.PanelOrderStatus
	if err := json.Unmarshal(body, &status); err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrapf(err, "unparsable status response: %q", string(body))
	}
	if status.Error != "" {
		return nil, errors.Errorf("panel reported error for order %d: %s", panelOrderID, status.Error)
	}

	return &status, nil
}

func (s *panelService) postForm(ctx context.Context, params url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.URL, strings.NewReader(params.Encode()))
	if err != nil {
		return nil, errors.Wrap(err, "failed to build panel request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to call panel API")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read panel response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("panel returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return body, nil
}
