// Package api exposes the product-creation workflow over HTTP. Each create
// request runs one commit; the notifications the workflow emits are returned
// in the response body as toasts for the client to render.
package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/stockflow/product-service/internal/assets"
	"github.com/stockflow/product-service/internal/model"
	"github.com/stockflow/product-service/internal/platform/logger"
	"github.com/stockflow/product-service/internal/variants"
	"github.com/stockflow/product-service/internal/workflow"
)

const (
	commitTimeout    = 30 * time.Second
	nameCheckTimeout = 10 * time.Second
)

type Handler struct {
	deps workflow.Deps
	log  logger.Logger
}

func NewHandler(deps workflow.Deps, log logger.Logger) *Handler {
	return &Handler{deps: deps, log: log}
}

// createProductRequest is the JSON "payload" part of the multipart create
// request; image files ride alongside it under the "images" field.
type createProductRequest struct {
	FormValues          model.FormValues     `json:"form_values"`
	Variants            []model.VariantDraft `json:"variants"`
	ShowVariantsSection bool                 `json:"show_variants_section"`
}

// CreateProduct handles POST /v1/products.
func (h *Handler) CreateProduct(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), commitTimeout)
	defer cancel()

	t := tenantFrom(c)

	var req createProductRequest
	if err := json.Unmarshal([]byte(c.PostForm("payload")), &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload: " + err.Error()})
		return
	}

	set := variants.NewSet()
	set.Restore(req.Variants, req.ShowVariantsSection)

	stager := assets.NewStager(assets.RefAllocator{})
	if form, err := c.MultipartForm(); err == nil && form != nil {
		var files []assets.File
		for _, fh := range form.File["images"] {
			src, err := fh.Open()
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable image: " + fh.Filename})
				return
			}
			data, err := io.ReadAll(src)
			src.Close()
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable image: " + fh.Filename})
				return
			}
			files = append(files, assets.File{
				Name:        fh.Filename,
				ContentType: fh.Header.Get("Content-Type"),
				Data:        data,
			})
		}
		stager.Ingest(files)
	}

	// The uniqueness rule only applies to simple products; a transport error
	// counts as unique rather than blocking the commit.
	duplicate := false
	if !set.HasVariants() {
		count, err := h.deps.Products.CountByName(ctx, t, strings.TrimSpace(req.FormValues.Name))
		if err != nil {
			h.log.Warn("duplicate name check failed, treating as unique", zap.Error(err))
		} else {
			duplicate = count > 0
		}
	}

	toasts := newToastCollector()
	res := workflow.New(h.deps, toasts).Commit(ctx, t, workflow.Input{
		Form:          req.FormValues,
		Variants:      set,
		Images:        stager,
		DuplicateName: duplicate,
	})

	if len(res.Violations) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"violations": res.Violations,
			"toasts":     toasts.All(),
		})
		return
	}
	if !res.Done() {
		status := http.StatusInternalServerError
		switch res.FailedStep {
		case workflow.StepValidating:
			status = http.StatusConflict
		case workflow.StepUploadingAsset:
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{
			"failed_step": res.FailedStep.String(),
			"toasts":      toasts.All(),
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"product":   res.Product,
		"variants":  res.Variants,
		"ledger":    res.Ledger,
		"image_url": res.ImageURL,
		"warnings":  res.Warnings,
		"toasts":    toasts.All(),
	})
}

// CheckName handles GET /v1/products/check-name?name=...
func (h *Handler) CheckName(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), nameCheckTimeout)
	defer cancel()

	name := strings.TrimSpace(c.Query("name"))
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	count, err := h.deps.Products.CountByName(ctx, tenantFrom(c), name)
	if err != nil {
		h.log.Warn("duplicate name check failed, treating as unique",
			zap.String("name", name), zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"duplicate": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"duplicate": count > 0})
}

// ListProducts handles GET /v1/products.
func (h *Handler) ListProducts(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), nameCheckTimeout)
	defer cancel()

	t := tenantFrom(c)
	products, err := h.deps.Products.ListByBranch(ctx, t.BranchID)
	if err != nil {
		h.log.Error("product list failed", zap.String("branch_id", t.BranchID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list products"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

// GetDraft handles GET /v1/drafts/product.
func (h *Handler) GetDraft(c *gin.Context) {
	d := h.deps.Drafts.Load(c.Request.Context(), tenantFrom(c))
	if d == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, d)
}

// SaveDraft handles PUT /v1/drafts/product.
func (h *Handler) SaveDraft(c *gin.Context) {
	var d model.Draft
	if err := c.ShouldBindJSON(&d); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid draft: " + err.Error()})
		return
	}
	if d.Timestamp.IsZero() {
		d.Timestamp = time.Now()
	}
	h.deps.Drafts.Save(c.Request.Context(), tenantFrom(c), &d)
	c.Status(http.StatusNoContent)
}

// DeleteDraft handles DELETE /v1/drafts/product.
func (h *Handler) DeleteDraft(c *gin.Context) {
	if err := h.deps.Drafts.Clear(c.Request.Context(), tenantFrom(c)); err != nil {
		h.log.Warn("draft delete failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete draft"})
		return
	}
	c.Status(http.StatusNoContent)
}
