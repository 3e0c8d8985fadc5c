package webhook

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"

	"callcenter-platform/internal/ratelimit"
	"callcenter-platform/internal/router"
	"callcenter-platform/internal/security"
	"callcenter-platform/internal/telephony"
	"callcenter-platform/pkg/logger"
)

// Handlers terminates provider webhooks. Edge policy: malformed forms, bad
// signatures, and rate-limited callers are decided here, before any domain
// logic runs, and every rejection leaves a security alert behind.
type Handlers struct {
	router    *router.Router
	validator *security.SignatureValidator
	alerts    *security.AlertService
	limiter   ratelimit.Store
	tenants   TenantResolver

	rateLimitMax    int
	rateLimitWindow time.Duration
}

func NewHandlers(
	r *router.Router,
	validator *security.SignatureValidator,
	alerts *security.AlertService,
	limiter ratelimit.Store,
	tenants TenantResolver,
	rateLimitMax int,
	rateLimitWindow time.Duration,
) *Handlers {
	return &Handlers{
		router:          r,
		validator:       validator,
		alerts:          alerts,
		limiter:         limiter,
		tenants:         tenants,
		rateLimitMax:    rateLimitMax,
		rateLimitWindow: rateLimitWindow,
	}
}

func (h *Handlers) Register(rg *gin.RouterGroup) {
	rg.POST("/incoming-call", h.IncomingCall)
	rg.POST("/ivr-input", h.IVRInput)
	rg.POST("/call-status", h.CallStatus)
	rg.POST("/recording-status", h.RecordingStatus)
	rg.POST("/transcription-complete", h.TranscriptionComplete)
}

func (h *Handlers) IncomingCall(c *gin.Context) {
	form, ok := h.parsedForm(c)
	if !ok {
		return
	}
	in, err := telephony.ParseIncomingCall(form)
	if err != nil {
		h.rejectMalformed(c, form, err)
		return
	}

	// Per-caller limit runs before signature verification: the limiter is the
	// cheaper check and shields the HMAC path during a flood.
	res, err := h.limiter.Check(c.Request.Context(), "incoming-call:"+in.From, h.rateLimitMax, h.rateLimitWindow)
	if err != nil {
		// The limiter is advisory; a broken limiter must not take calls down.
		logger.FromGin(c).Error("rate limiter check failed", "error", err)
		res = ratelimit.Result{Allowed: true}
	}
	if !res.Allowed {
		h.recordAlert(c, form, security.Alert{
			Type:     security.AlertTypeRateLimited,
			Severity: security.SeverityMedium,
			Source:   in.From,
			Details:  alertDetails(form, ""),
		})
		retryAfter := int(time.Until(res.ResetAt).Seconds())
		if retryAfter < 1 {
			retryAfter = 1
		}
		c.Header("Retry-After", fmt.Sprintf("%d", retryAfter))
		h.renderXML(c, router.RateLimited())
		return
	}

	if !h.verifySignature(c, form) {
		return
	}

	tenantID, err := h.tenants.TenantByNumber(c.Request.Context(), in.To)
	if err != nil {
		logger.FromGin(c).Error("tenant resolution failed", "error", err, "to", in.To)
		h.renderXML(c, router.Apology())
		return
	}

	resp, err := h.router.IncomingCall(c.Request.Context(), tenantID, router.IncomingCall{
		CallSid: in.CallSid,
		From:    in.From,
		To:      in.To,
	})
	if err != nil {
		logger.FromGin(c).Error("incoming call handling failed", "error", err, "call_sid", in.CallSid)
		h.renderXML(c, router.Apology())
		return
	}
	h.renderXML(c, resp)
}

func (h *Handlers) IVRInput(c *gin.Context) {
	form, ok := h.parsedForm(c)
	if !ok {
		return
	}
	in, err := telephony.ParseDigitInput(form)
	if err != nil {
		h.rejectMalformed(c, form, err)
		return
	}
	if !h.verifySignature(c, form) {
		return
	}

	tenantID, err := h.tenants.TenantByNumber(c.Request.Context(), in.To)
	if err != nil {
		logger.FromGin(c).Error("tenant resolution failed", "error", err, "to", in.To)
		h.renderXML(c, router.Apology())
		return
	}

	resp, err := h.router.DigitInput(c.Request.Context(), tenantID, router.DigitInput{
		CallSid: in.CallSid,
		From:    in.From,
		Digits:  in.Digits,
	})
	if err != nil {
		logger.FromGin(c).Error("digit input handling failed", "error", err, "call_sid", in.CallSid)
		h.renderXML(c, router.Apology())
		return
	}
	h.renderXML(c, resp)
}

func (h *Handlers) CallStatus(c *gin.Context) {
	form, ok := h.parsedForm(c)
	if !ok {
		return
	}
	in, err := telephony.ParseCallStatus(form)
	if err != nil {
		h.rejectMalformed(c, form, err)
		return
	}
	if !h.verifySignature(c, form) {
		return
	}

	tenantID, err := h.tenants.TenantByNumber(c.Request.Context(), in.To)
	if err != nil {
		logger.FromGin(c).Error("tenant resolution failed", "error", err, "to", in.To)
		c.Status(http.StatusInternalServerError)
		return
	}

	if err := h.router.CallStatus(c.Request.Context(), tenantID, router.StatusUpdate{
		CallSid:         in.CallSid,
		ProviderStatus:  in.CallStatus,
		DurationSeconds: in.DurationSeconds,
	}); err != nil {
		logger.FromGin(c).Error("call status handling failed", "error", err, "call_sid", in.CallSid)
		c.Status(http.StatusInternalServerError)
		return
	}
	h.renderXML(c, telephony.NewResponse())
}

func (h *Handlers) RecordingStatus(c *gin.Context) {
	form, ok := h.parsedForm(c)
	if !ok {
		return
	}
	in, err := telephony.ParseRecording(form)
	if err != nil {
		h.rejectMalformed(c, form, err)
		return
	}
	if !h.verifySignature(c, form) {
		return
	}

	if err := h.router.RecordingStatus(c.Request.Context(), in.CallSid, in.RecordingURL); err != nil {
		logger.FromGin(c).Error("recording status handling failed", "error", err, "call_sid", in.CallSid)
		c.Status(http.StatusInternalServerError)
		return
	}
	h.renderXML(c, telephony.NewResponse(
		telephony.Say{Language: "en-US", Text: "Thank you for your message. Goodbye."},
		telephony.Hangup{},
	))
}

func (h *Handlers) TranscriptionComplete(c *gin.Context) {
	form, ok := h.parsedForm(c)
	if !ok {
		return
	}
	in, err := telephony.ParseTranscription(form)
	if err != nil {
		h.rejectMalformed(c, form, err)
		return
	}
	if !h.verifySignature(c, form) {
		return
	}

	if err := h.router.TranscriptionComplete(c.Request.Context(), in.CallSid, in.TranscriptText); err != nil {
		logger.FromGin(c).Error("transcription handling failed", "error", err, "call_sid", in.CallSid)
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Status(http.StatusOK)
}

func (h *Handlers) parsedForm(c *gin.Context) (url.Values, bool) {
	if err := c.Request.ParseForm(); err != nil {
		h.rejectMalformed(c, nil, err)
		return nil, false
	}
	return c.Request.PostForm, true
}

// verifySignature fails closed. A bad or missing signature is recorded as a
// high-severity alert and the request stops here with 403.
func (h *Handlers) verifySignature(c *gin.Context, form url.Values) bool {
	if h.validator.Validate(c.Request, form) {
		return true
	}
	h.recordAlert(c, form, security.Alert{
		Type:     security.AlertTypeWebhookRejected,
		Severity: security.SeverityHigh,
		Source:   alertSource(c, form),
		Details:  alertDetails(form, c.GetHeader(security.SignatureHeader)),
	})
	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid signature"})
	return false
}

func (h *Handlers) rejectMalformed(c *gin.Context, form url.Values, err error) {
	h.recordAlert(c, form, security.Alert{
		Type:     security.AlertTypeMalformedWebhook,
		Severity: security.SeverityMedium,
		Source:   alertSource(c, form),
		Details:  alertDetails(form, c.GetHeader(security.SignatureHeader)),
	})
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func (h *Handlers) recordAlert(c *gin.Context, form url.Values, a security.Alert) {
	a.Endpoint = c.FullPath()
	if a.Endpoint == "" {
		a.Endpoint = c.Request.URL.Path
	}
	// Best-effort tenant attribution off the dialed number, so the tenant's
	// operators see rejections aimed at their numbers. The form is untrusted
	// here; this only scopes visibility, never authorization.
	if form != nil {
		if to := form.Get("To"); to != "" {
			if tid, err := h.tenants.TenantByNumber(c.Request.Context(), to); err == nil {
				a.TenantID = tid
			}
		}
	}
	ctx := logger.With(c.Request.Context(), logger.FromGin(c))
	if err := h.alerts.Record(ctx, a); err != nil {
		// Best-effort: a full alert store must not block webhook rejection.
		logger.FromGin(c).Error("security alert write failed", "error", err, "type", a.Type)
	}
}

func (h *Handlers) renderXML(c *gin.Context, resp telephony.Response) {
	body, err := telephony.Render(resp)
	if err != nil {
		logger.FromGin(c).Error("voice document render failed", "error", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.Data(http.StatusOK, telephony.ContentType, body)
}

func alertSource(c *gin.Context, form url.Values) string {
	if form != nil {
		if from := form.Get("From"); from != "" {
			return from
		}
	}
	return c.ClientIP()
}

// alertDetails packages the request parameters and the truncated signature
// for forensic review. The full signature is never stored.
func alertDetails(form url.Values, signature string) string {
	payload := map[string]any{"params": form}
	if signature != "" {
		payload["signature"] = security.TruncateSignature(signature)
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return ""
	}
	return string(b)
}
