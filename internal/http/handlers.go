package http

import (
	"bytes"
	"errors"
	"net/http"
	"time"

	"salesdash/internal/export"
	"salesdash/internal/filter"
	"salesdash/internal/log"
	"salesdash/internal/table"
)

const exportFilename = "sales-summary.xlsx"

// handleIndex renders the full page for the caller's session.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		s.logger.ErrorContext(r.Context(), "Templates not loaded", log.FieldPath, r.URL.Path)
		InternalServerError("templates not loaded").Write(w)
		return
	}

	_, sess := s.sessions.FromRequest(w, r)
	params := ParseTableParams(r.URL.Query())
	view := newIndexView(
		s.dash.Controller.Domain(),
		sess.State(),
		newTableView(s.columns, sess.Rows(), params, s.pageSize),
		s.dash.Records,
		s.dash.LoadedAt.Format(time.RFC1123),
	)

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "index.html", view); err != nil {
		s.renderFailed(w, r, "index.html", err)
		return
	}
	NewHTMXResponse().BodyHTML(buf.Bytes()).Write(w)
}

// handleChecklist applies a change of the item type checklist.
func (s *Server) handleChecklist(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	shown := ParseCheckbox(r.Form, paramSelectAll)
	s.applyEvent(w, r, filter.Event{
		Kind:           filter.ChecklistChanged,
		Selected:       FormValues(r.Form, paramItemType),
		SelectAllShown: &shown,
	})
}

// handleSelectAll applies a change of the select-all checkbox.
func (s *Server) handleSelectAll(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	s.applyEvent(w, r, filter.Event{
		Kind:    filter.SelectAllChanged,
		Checked: ParseCheckbox(r.Form, paramSelectAll),
	})
}

// applyEvent runs ev against the caller's session and renders what changed:
// the table as the main swap target, plus out-of-band checklist and
// select-all redraws. An event with no visible effect answers 204.
func (s *Server) applyEvent(w http.ResponseWriter, r *http.Request, ev filter.Event) {
	ctx := r.Context()
	id, sess := s.sessions.FromRequest(w, r)

	eff, err := sess.Apply(ev)
	if err != nil {
		var verr *filter.ValidationError
		if errors.As(err, &verr) {
			log.FromContext(ctx).WarnContext(ctx, "Rejected filter event",
				log.FieldSessionID, id,
				log.FieldEvent, ev.Kind.String(),
				log.FieldError, err)
			UnprocessableEntityError(verr.Error()).Write(w)
			return
		}
		log.NewStructuredLogger(log.FromContext(ctx)).LogError(ctx, "Filter event failed", err, log.OpFilter,
			log.NewFields().WithSession(id))
		InternalServerError("Filter update failed").Write(w)
		return
	}

	st := sess.State()
	rows := sess.Rows()
	s.events.Record(ctx, id, ev.Kind, st, len(rows))
	log.NewStructuredLogger(log.FromContext(ctx)).LogFilterEvent(ctx, id, ev.Kind.String(), st.Selected, st.SelectAll, len(rows))

	if eff.None() {
		NoContent().Write(w)
		return
	}
	if s.templates == nil {
		InternalServerError("templates not loaded").Write(w)
		return
	}
	if eff.Rows.Changed {
		rows = eff.Rows.Value
	}

	params := ParseTableParams(r.Form)
	params.Page = 0

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "table", newTableView(s.columns, rows, params, s.pageSize)); err != nil {
		s.renderFailed(w, r, "table", err)
		return
	}
	if eff.Checklist.Changed {
		view := newChecklistView(s.dash.Controller.Domain(), eff.Checklist.Value, true)
		if err := s.templates.ExecuteTemplate(&buf, "checklist", view); err != nil {
			s.renderFailed(w, r, "checklist", err)
			return
		}
	}
	if eff.SelectAll.Changed {
		view := selectAllView{Checked: eff.SelectAll.Value, OOB: true}
		if err := s.templates.ExecuteTemplate(&buf, "select_all", view); err != nil {
			s.renderFailed(w, r, "select_all", err)
			return
		}
	}

	NewHTMXResponse().
		TriggerFilterChanged(len(rows), st.SelectAll).
		BodyHTML(buf.Bytes()).
		Write(w)
}

// handleTable re-renders the table for a new sort order or page.
func (s *Server) handleTable(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		InternalServerError("templates not loaded").Write(w)
		return
	}

	_, sess := s.sessions.FromRequest(w, r)
	params := ParseTableParams(r.URL.Query())
	view := newTableView(s.columns, sess.Rows(), params, s.pageSize)

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "table", view); err != nil {
		s.renderFailed(w, r, "table", err)
		return
	}
	NewHTMXResponse().
		TriggerTableRefresh(view.Sort, params.Page).
		BodyHTML(buf.Bytes()).
		Write(w)
}

// handleExport downloads every visible row of the session, in the current
// sort order, as an xlsx workbook.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, sess := s.sessions.FromRequest(w, r)
	keys := table.ParseSort(ParseTableParams(r.URL.Query()).Sort, s.columns)
	rows := table.Sort(sess.Rows(), keys)

	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, s.columns, rows); err != nil {
		log.NewStructuredLogger(log.FromContext(ctx)).LogError(ctx, "Export failed", err, log.OpExport,
			log.NewFields().WithSession(id))
		InternalServerError("Export failed").Write(w)
		return
	}

	log.FromContext(ctx).InfoContext(ctx, "Table exported",
		log.FieldSessionID, id,
		log.FieldRows, len(rows),
		log.FieldOperation, log.OpExport)
	NewHTMXResponse().
		Header("Content-Type", export.ContentType).
		Header("Content-Disposition", `attachment; filename="`+exportFilename+`"`).
		Body(buf.Bytes()).
		Write(w)
}

func (s *Server) renderFailed(w http.ResponseWriter, r *http.Request, name string, err error) {
	ctx := r.Context()
	log.NewStructuredLogger(log.FromContext(ctx)).LogError(ctx, "Template execution failed", err, log.OpRender,
		log.LogFields{"template": name}.WithComponent(log.ComponentTemplate))
	InternalServerError("Rendering failed").Write(w)
}
