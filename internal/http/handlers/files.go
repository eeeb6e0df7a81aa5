package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wisdomhub/filekeep/internal/accounts"
	"github.com/wisdomhub/filekeep/internal/domain/user"
	"github.com/wisdomhub/filekeep/internal/observability"
	"github.com/wisdomhub/filekeep/internal/storage"
)

type FileRegistry interface {
	AttachFile(ctx context.Context, email, fileID string) (user.User, error)
	ListFiles(ctx context.Context, email string) ([]string, error)
}

type FilesHandler struct {
	registry FileRegistry
	store    storage.Store
	log      *slog.Logger
	prom     *observability.Prom
}

func NewFilesHandler(registry FileRegistry, store storage.Store, log *slog.Logger, prom *observability.Prom) *FilesHandler {
	return &FilesHandler{registry: registry, store: store, log: log, prom: prom}
}

func (h *FilesHandler) Upload(ctx *gin.Context) {
	fh, err := ctx.FormFile("file")

	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			RespondError(ctx, http.StatusRequestEntityTooLarge, "too_large", "File too large", nil)
			return
		}

		RespondBadRequest(ctx, "No file uploaded", nil)
		return
	}

	email, err := accounts.NormalizeEmail(ctx.PostForm("email"))

	if err != nil {
		RespondBadRequest(ctx, err.Error(), nil)
		return
	}

	src, err := fh.Open()

	if err != nil {
		h.log.ErrorContext(ctx.Request.Context(), "open multipart file", "err", err)
		RespondInternal(ctx, "Server error")
		return
	}
	defer src.Close()

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Minute)
	defer cancel()

	stored, err := h.store.Save(cctx, storage.Object{
		OriginalName: fh.Filename,
		ContentType:  fh.Header.Get("Content-Type"),
		Size:         fh.Size,
		Body:         src,
	})

	if err != nil {
		if errors.Is(err, storage.ErrEmptyName) {
			RespondBadRequest(ctx, "File name is required", nil)
			return
		}

		h.log.ErrorContext(cctx, "store upload", "err", err)
		RespondInternal(ctx, "Server error")
		return
	}

	u, err := h.registry.AttachFile(cctx, email, stored.Name)

	if err != nil {
		// nothing references the object, drop it
		if delErr := h.store.Delete(context.WithoutCancel(cctx), stored.Name); delErr != nil {
			h.log.WarnContext(cctx, "remove orphaned upload", "file", stored.Name, "err", delErr)
		}

		RespondAccountsError(ctx, h.log, err)
		return
	}

	h.prom.AddUploadedBytes(stored.Size)

	ctx.JSON(http.StatusCreated, gin.H{
		"msg":  "File uploaded successfully",
		"file": stored.Name,
		"path": stored.Path,
		"user": u.Public(),
	})
}

func (h *FilesHandler) ListFiles(ctx *gin.Context) {
	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	files, err := h.registry.ListFiles(cctx, ctx.Query("email"))

	if err != nil {
		RespondAccountsError(ctx, h.log, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"files": files})
}
