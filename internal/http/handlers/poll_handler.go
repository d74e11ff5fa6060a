// Poll HTTP handlers.
//
// This file exposes the REST endpoints of the scheduling API:
//   - GET  /health                  (liveness)
//   - POST /polls                   (create)
//   - GET  /polls/{pollId}          (read with tallies, weak ETag)
//   - POST /polls/{pollId}/votes    (anonymous vote, sets the voter cookie)
//   - POST /polls/{pollId}/lock     (host finalizes a slot)
//
// Handlers are transport-thin: they decode input, call the PollService and
// translate results and sentinel errors into HTTP responses.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-meetmerge-backend/internal/domain"
	"github.com/tbourn/go-meetmerge-backend/internal/http/middleware"
	"github.com/tbourn/go-meetmerge-backend/internal/services"
)

// VoterKeyHeader lets non-browser clients send and receive the voter key
// without cookies.
const VoterKeyHeader = "X-Voter-Key"

// PollService defines the poll operations consumed by the handlers.
//
// Implementations must be safe for concurrent use and honor ctx.
type PollService interface {
	Create(ctx context.Context, in services.CreatePollInput) (*services.CreatePollResult, error)
	Get(ctx context.Context, pollID, hostKey string) (*services.PollView, error)
	Vote(ctx context.Context, in services.VoteInput) (*services.VoteResult, error)
	Lock(ctx context.Context, in services.LockInput) error
}

// VoterCookie describes the cookie carrying the anonymous voter key.
type VoterCookie struct {
	Name   string
	MaxAge time.Duration
	Secure bool
}

// Handlers groups the poll endpoints.
type Handlers struct {
	svc    PollService
	cookie VoterCookie
}

// New constructs Handlers bound to svc. An empty cookie name falls back to
// "mm_vote_key".
func New(svc PollService, cookie VoterCookie) *Handlers {
	if cookie.Name == "" {
		cookie.Name = "mm_vote_key"
	}
	if cookie.MaxAge <= 0 {
		cookie.MaxAge = 30 * 24 * time.Hour
	}
	return &Handlers{svc: svc, cookie: cookie}
}

//
// DTOs
//

// SlotInput is one candidate start time in a create request.
type SlotInput struct {
	StartISO string `json:"startIso" example:"2025-01-08T19:00"`
}

// CreatePollRequest is the JSON payload for creating a poll.
type CreatePollRequest struct {
	Title       string      `json:"title" example:"Dinner"`
	Description *string     `json:"description,omitempty" example:"Somewhere central"`
	Slots       []SlotInput `json:"slots"`
}

// CreatePollResponse returns the new poll id and the host secret. The host
// key is shown exactly once.
type CreatePollResponse struct {
	PollID  string `json:"pollId" example:"p_3f9a1c2b4d5e"`
	HostKey string `json:"hostKey" example:"9c1e0a7b3d5f2e8a6c4b1d0e9f7a3c5b2d4e"`
}

// PollBody is a poll together with its ordered slots.
type PollBody struct {
	domain.Poll
	Slots []domain.Slot `json:"slots"`
}

// HostBody is present in GetPollResponse only for the host.
type HostBody struct {
	OK bool `json:"ok" example:"true"`
}

// GetPollResponse is the read model of a poll. Tallies follow slot order.
type GetPollResponse struct {
	Poll    PollBody       `json:"poll"`
	Tallies []domain.Tally `json:"tallies"`
	Host    *HostBody      `json:"host"`
}

// VoteRequest is the JSON payload for voting.
type VoteRequest struct {
	SlotID string `json:"slotId" example:"s_0a1b2c3d4e5f"`
	Choice string `json:"choice" enums:"yes,maybe,no" example:"yes"`
}

// LockRequest is the JSON payload for locking a poll.
type LockRequest struct {
	SlotID  string `json:"slotId" example:"s_0a1b2c3d4e5f"`
	HostKey string `json:"hostKey" example:"9c1e0a7b3d5f2e8a6c4b1d0e9f7a3c5b2d4e"`
}

//
// Handlers
//

// Health godoc
// @ID          health
// @Summary     Liveness probe
// @Tags        Health
// @Produce     json
// @Success     200  {object}  handlers.OKResponse
// @Router      /health [get]
func (h *Handlers) Health(c *gin.Context) {
	ok(c, http.StatusOK, OKResponse{OK: true})
}

// CreatePoll godoc
// @ID          createPoll
// @Summary     Create a poll
// @Description Creates a poll with 3 to 7 candidate slots. Blank slots are dropped. The host key is returned once.
// @Tags        Polls
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.CreatePollRequest  true  "Create poll payload"
//
// @Success     200  {object}  handlers.CreatePollResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     429  {object}  handlers.ErrorResponse  "Rate limited"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /polls [post]
func (h *Handlers) CreatePoll(c *gin.Context) {
	var req CreatePollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	starts := make([]string, len(req.Slots))
	for i, s := range req.Slots {
		starts[i] = s.StartISO
	}

	res, err := h.svc.Create(c.Request.Context(), services.CreatePollInput{
		Title:       req.Title,
		Description: req.Description,
		Slots:       starts,
	})
	if err != nil {
		failService(c, err)
		return
	}

	middleware.ObservePollCreated()
	middleware.LoggerFrom(c).Info().Str("poll_id", res.PollID).Int("slots", len(starts)).Msg("poll created")

	c.Header("Cache-Control", "no-store")
	ok(c, http.StatusOK, CreatePollResponse{PollID: res.PollID, HostKey: res.HostKey})
}

// GetPoll godoc
// @ID          getPoll
// @Summary     Get a poll with tallies
// @Description Returns the poll, its ordered slots and per-slot tallies. host is {"ok":true} only when hostKey matches. Supports weak ETag via If-None-Match.
// @Tags        Polls
// @Produce     json
//
// @Param       pollId         path    string  true   "Poll ID"                     example(p_3f9a1c2b4d5e)
// @Param       hostKey        query   string  false  "Host key"
// @Param       If-None-Match  header  string  false  "Return 304 if ETag matches"
//
// @Success     200  {object}  handlers.GetPollResponse
// @Header      200  {string}  ETag  "Weak ETag of the response body"
// @Success     304  {string}  string  "Not Modified"
// @Failure     404  {object}  handlers.ErrorResponse  "Poll not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /polls/{pollId} [get]
func (h *Handlers) GetPoll(c *gin.Context) {
	view, err := h.svc.Get(c.Request.Context(), c.Param("pollId"), c.Query("hostKey"))
	if err != nil {
		failService(c, err)
		return
	}

	resp := GetPollResponse{
		Poll:    PollBody{Poll: view.Poll, Slots: view.Slots},
		Tallies: view.Tallies,
	}
	if view.IsHost {
		resp.Host = &HostBody{OK: true}
	}
	if resp.Poll.Slots == nil {
		resp.Poll.Slots = []domain.Slot{}
	}
	if resp.Tallies == nil {
		resp.Tallies = []domain.Tally{}
	}

	body, err := json.Marshal(resp)
	if err != nil {
		failService(c, err)
		return
	}
	etag := `W/"` + strconv.FormatUint(xxhash.Sum64(body), 16) + `"`
	c.Header("ETag", etag)
	c.Header("Cache-Control", "no-cache")
	if etagMatches(c.GetHeader("If-None-Match"), etag) {
		c.Status(http.StatusNotModified)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

// Vote godoc
// @ID          vote
// @Summary     Vote on a slot
// @Description Records or replaces the caller's yes/maybe/no for one slot. The voter key is read from the cookie (or X-Voter-Key) and minted when absent; it is sent back as a cookie and in X-Voter-Key.
// @Tags        Polls
// @Accept      json
// @Produce     json
//
// @Param       pollId       path    string  true   "Poll ID"  example(p_3f9a1c2b4d5e)
// @Param       X-Voter-Key  header  string  false  "Voter key for clients without cookies"
// @Param       body         body    handlers.VoteRequest  true  "Vote payload"
//
// @Success     200  {object}  handlers.OKResponse
// @Header      200  {string}  X-Voter-Key  "Voter key the vote was stored under"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Poll not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Poll locked"
// @Failure     429  {object}  handlers.ErrorResponse  "Rate limited"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /polls/{pollId}/votes [post]
func (h *Handlers) Vote(c *gin.Context) {
	var req VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	res, err := h.svc.Vote(c.Request.Context(), services.VoteInput{
		PollID:   c.Param("pollId"),
		SlotID:   req.SlotID,
		Choice:   req.Choice,
		VoterKey: h.voterKey(c),
	})
	if err != nil {
		failService(c, err)
		return
	}

	middleware.ObserveVote(req.Choice)
	h.setVoterCookie(c, res.VoterKey)
	c.Header(VoterKeyHeader, res.VoterKey)
	ok(c, http.StatusOK, OKResponse{OK: true})
}

// LockPoll godoc
// @ID          lockPoll
// @Summary     Lock a poll on a slot
// @Description Finalizes the poll on slotId. Requires the host key. A poll can be locked once.
// @Tags        Polls
// @Accept      json
// @Produce     json
//
// @Param       pollId  path  string  true  "Poll ID"  example(p_3f9a1c2b4d5e)
// @Param       body    body  handlers.LockRequest  true  "Lock payload"
//
// @Success     200  {object}  handlers.OKResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     403  {object}  handlers.ErrorResponse  "Wrong host key"
// @Failure     404  {object}  handlers.ErrorResponse  "Poll not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Already locked"
// @Failure     429  {object}  handlers.ErrorResponse  "Rate limited"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /polls/{pollId}/lock [post]
func (h *Handlers) LockPoll(c *gin.Context) {
	var req LockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	pollID := c.Param("pollId")
	if err := h.svc.Lock(c.Request.Context(), services.LockInput{
		PollID:  pollID,
		SlotID:  req.SlotID,
		HostKey: req.HostKey,
	}); err != nil {
		failService(c, err)
		return
	}

	middleware.ObservePollLocked()
	middleware.LoggerFrom(c).Info().Str("poll_id", pollID).Str("slot_id", req.SlotID).Msg("poll locked")
	ok(c, http.StatusOK, OKResponse{OK: true})
}

// voterKey returns the caller's key from the cookie, else the header.
func (h *Handlers) voterKey(c *gin.Context) string {
	if v, err := c.Cookie(h.cookie.Name); err == nil && v != "" {
		return v
	}
	return c.GetHeader(VoterKeyHeader)
}

// setVoterCookie issues or refreshes the voter cookie.
func (h *Handlers) setVoterCookie(c *gin.Context, key string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, key, int(h.cookie.MaxAge/time.Second), "/", "", h.cookie.Secure, true)
}

// etagMatches reports whether an If-None-Match value lists tag or is "*".
// If-None-Match uses weak comparison, so W/ prefixes are ignored.
func etagMatches(header, tag string) bool {
	if header == "" {
		return false
	}
	want := strings.TrimPrefix(tag, "W/")
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == want {
			return true
		}
	}
	return false
}
