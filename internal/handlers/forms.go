package handlers

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"lxrose/internal/forms"
)

/*
POST /api/forms/<slug>
- Public intake; one document per submission
*/
func SubmitForm(store FormStore, kind *forms.Kind) gin.HandlerFunc {
	route := "SubmitForm:" + kind.Slug
	return func(c *gin.Context) {
		defer handlePanic(c, route)

		sub := kind.NewSubmission()
		if err := c.ShouldBindJSON(sub); err != nil {
			respondValidationError(c, err)
			return
		}
		if err := forms.Validate(sub); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := storeContext(c)
		defer cancel()

		id, err := store.InsertForm(ctx, kind, sub.Document())
		if err != nil {
			respondStoreError(c, route, err)
			return
		}

		slog.Info("form submitted", "route", route, "id", id)
		c.JSON(http.StatusCreated, gin.H{
			"id":      id,
			"message": "Form submitted successfully",
		})
	}
}

/*
GET /api/forms/<slug>?status=&limit=
- Newest first, default limit 100
*/
func ListForms(store FormStore, kind *forms.Kind) gin.HandlerFunc {
	route := "ListForms:" + kind.Slug
	return func(c *gin.Context) {
		defer handlePanic(c, route)

		limit, err := parseListLimit(c.Query("limit"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		ctx, cancel := storeContext(c)
		defer cancel()

		records, err := store.ListForms(ctx, kind, forms.Query{
			Status: strings.TrimSpace(c.Query("status")),
			Limit:  limit,
		})
		if err != nil {
			respondStoreError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, records)
	}
}

type replyRequest struct {
	ReplyMessage string `json:"replyMessage" validate:"required,max=10000"`
	RepliedBy    string `json:"repliedBy" validate:"required,max=200"`
}

/*
POST /api/forms/<slug>/:id/:action
- One-way status move; repeating it is a no-op
*/
func TransitionForm(store FormStore, kind *forms.Kind) gin.HandlerFunc {
	route := "TransitionForm:" + kind.Slug
	return func(c *gin.Context) {
		defer handlePanic(c, route)

		action := c.Param("action")
		tr, ok := kind.Transition(action)
		if !ok {
			respondWithError(c, http.StatusNotFound, route, fmt.Sprintf("unknown action %q", action))
			return
		}

		var fields map[string]any
		if tr.Reply {
			var req replyRequest
			if !bindAndValidate(c, &req) {
				return
			}
			fields = map[string]any{
				"replyMessage": strings.TrimSpace(req.ReplyMessage),
				"repliedBy":    strings.TrimSpace(req.RepliedBy),
			}
		}

		ctx, cancel := storeContext(c)
		defer cancel()

		id := c.Param("id")
		changed, err := store.TransitionForm(ctx, kind, id, tr, fields)
		if err != nil {
			respondStoreError(c, route, err)
			return
		}

		slog.Info("form transitioned", "route", route, "id", id, "action", action, "changed", changed)
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"id":      id,
			"status":  tr.Target,
			"changed": changed,
		})
	}
}

/*
GET /api/forms/<slug>/export
- Whole collection as CSV, newest first
*/
func ExportForms(store FormStore, kind *forms.Kind) gin.HandlerFunc {
	route := "ExportForms:" + kind.Slug
	return func(c *gin.Context) {
		defer handlePanic(c, route)

		ctx, cancel := storeContext(c)
		defer cancel()

		records, err := store.ListForms(ctx, kind, forms.Query{})
		if err != nil {
			respondStoreError(c, route, err)
			return
		}

		var buf bytes.Buffer
		if err := forms.WriteCSV(&buf, kind, records); err != nil {
			slog.Error("csv render failed", "route", route, "error", err)
			respondWithError(c, http.StatusInternalServerError, route, "export failed")
			return
		}

		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", kind.Filename))
		c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
	}
}
