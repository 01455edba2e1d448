package http

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"pin-scheduler/domain/apperror"
	"pin-scheduler/domain/dto"
	"pin-scheduler/domain/model"
	"pin-scheduler/infrastructure/csvimport"
	"pin-scheduler/usecase"
)

const defaultPostsPerDay = 5

type IPinSchedulerHandler interface {
	List(ctx *gin.Context)
	Create(ctx *gin.Context)
	Get(ctx *gin.Context)
	Update(ctx *gin.Context)
	Delete(ctx *gin.Context)
	PublishNow(ctx *gin.Context)
	Bulk(ctx *gin.Context)
	Template(ctx *gin.Context)
}

type PinSchedulerHandler struct {
	scheduler usecase.IPinScheduler
}

func NewPinSchedulerHandler(scheduler usecase.IPinScheduler) IPinSchedulerHandler {
	return &PinSchedulerHandler{scheduler: scheduler}
}

func (h *PinSchedulerHandler) List(ctx *gin.Context) {
	pins, err := h.scheduler.ListPins(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err)
		return
	}
	if pins == nil {
		pins = []model.ScheduledPin{}
	}
	ctx.JSON(http.StatusOK, dto.PinsResponse{Pins: pins})
}

func (h *PinSchedulerHandler) Create(ctx *gin.Context) {
	var req dto.SchedulePinRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	pin, err := h.scheduler.Schedule(ctx.Request.Context(), req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.PinResponse{Message: "Pin scheduled successfully", Pin: pin})
}

func (h *PinSchedulerHandler) Get(ctx *gin.Context) {
	pin, err := h.scheduler.GetPin(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.PinResponse{Pin: pin})
}

func (h *PinSchedulerHandler) Update(ctx *gin.Context) {
	var patch model.PinPatch
	if err := ctx.ShouldBindJSON(&patch); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	pin, err := h.scheduler.UpdatePin(ctx.Request.Context(), ctx.Param("id"), patch)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.PinResponse{Message: "Pin updated", Pin: pin})
}

func (h *PinSchedulerHandler) Delete(ctx *gin.Context) {
	if err := h.scheduler.DeletePin(ctx.Request.Context(), ctx.Param("id")); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Pin deleted successfully"})
}

func (h *PinSchedulerHandler) PublishNow(ctx *gin.Context) {
	outcome, err := h.scheduler.PublishNow(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	status := http.StatusOK
	if !outcome.Success {
		status = http.StatusInternalServerError
	}
	ctx.JSON(status, outcome)
}

// Bulk handles POST /pin-scheduler/bulk. The CSV is either the raw body or the
// multipart field "file"; postsPerDay, boardIds, account and preview come from
// the query string or form fields.
func (h *PinSchedulerHandler) Bulk(ctx *gin.Context) {
	src, closeSrc, err := csvSource(ctx)
	if err != nil {
		respondError(ctx, err)
		return
	}
	defer closeSrc()

	postsPerDay := defaultPostsPerDay
	if v := formValue(ctx, "postsPerDay"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "postsPerDay must be a number"})
			return
		}
		postsPerDay = n
	}

	plan, err := h.scheduler.PlanBulk(ctx.Request.Context(), src, postsPerDay, boardIDs(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}
	if formValue(ctx, "preview") == "true" {
		ctx.JSON(http.StatusOK, plan)
		return
	}
	ctx.JSON(http.StatusOK, h.scheduler.ScheduleBulk(ctx.Request.Context(), plan, formValue(ctx, "account")))
}

// Template handles GET /pin-scheduler/bulk/template
func (h *PinSchedulerHandler) Template(ctx *gin.Context) {
	ctx.Header("Content-Disposition", `attachment; filename="pin-template.csv"`)
	ctx.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(csvimport.Template()))
}

func csvSource(ctx *gin.Context) (io.Reader, func(), error) {
	if !strings.HasPrefix(ctx.ContentType(), "multipart/") {
		return ctx.Request.Body, func() {}, nil
	}
	header, err := ctx.FormFile("file")
	if err != nil {
		return nil, nil, apperror.Validation("CSV file is required")
	}
	f, err := header.Open()
	if err != nil {
		return nil, nil, err
	}
	return f, func() { _ = f.Close() }, nil
}

func formValue(ctx *gin.Context, key string) string {
	if v := ctx.Query(key); v != "" {
		return v
	}
	if strings.HasPrefix(ctx.ContentType(), "multipart/") {
		return ctx.PostForm(key)
	}
	return ""
}

// boardIDs accepts repeated and comma separated boardIds values.
func boardIDs(ctx *gin.Context) []string {
	raw := ctx.QueryArray("boardIds")
	if strings.HasPrefix(ctx.ContentType(), "multipart/") {
		raw = append(raw, ctx.PostFormArray("boardIds")...)
	}
	var ids []string
	for _, v := range raw {
		for _, id := range strings.Split(v, ",") {
			ids = append(ids, strings.TrimSpace(id))
		}
	}
	return lo.Uniq(lo.Compact(ids))
}
