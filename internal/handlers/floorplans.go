package handlers

import (
	"fmt"
	"net/http"

	"github.com/xelth-com/facilitymap/internal/layout"
	"github.com/xelth-com/facilitymap/internal/services/export"
	"github.com/xelth-com/facilitymap/internal/websocket"
	"go.uber.org/zap"
)

// getFloorPlan returns the plan of a floor
func (r *Router) getFloorPlan(w http.ResponseWriter, req *http.Request) {
	fp, err := r.svc.GetFloorPlan(req.Context(), pathID(req))
	if err != nil {
		r.respondErr(w, req, err)
		return
	}
	respondData(w, http.StatusOK, fp)
}

func (r *Router) getFloorPlanByID(w http.ResponseWriter, req *http.Request) {
	fp, err := r.svc.GetFloorPlanByID(req.Context(), pathID(req))
	if err != nil {
		r.respondErr(w, req, err)
		return
	}
	respondData(w, http.StatusOK, fp)
}

func (r *Router) createFloorPlan(w http.ResponseWriter, req *http.Request) {
	var in layout.CreateFloorPlanInput
	if err := decode(req, &in); err != nil {
		r.respondErr(w, req, err)
		return
	}
	fp, err := r.svc.CreateFloorPlan(req.Context(), pathID(req), in, actorID(req))
	if err != nil {
		r.respondErr(w, req, err)
		return
	}
	respondData(w, http.StatusCreated, fp)
}

// bulkUpdate reconciles the submitted canvas snapshot in one transaction
func (r *Router) bulkUpdate(w http.ResponseWriter, req *http.Request) {
	var in layout.BulkUpdateInput
	if err := decode(req, &in); err != nil {
		r.respondErr(w, req, err)
		return
	}
	fp, err := r.svc.BulkUpdate(req.Context(), pathID(req), in, actorID(req))
	if err != nil {
		r.respondErr(w, req, err)
		return
	}
	respondData(w, http.StatusOK, fp)
}

func (r *Router) deleteFloorPlan(w http.ResponseWriter, req *http.Request) {
	if err := r.svc.DeleteFloorPlan(req.Context(), pathID(req), actorID(req)); err != nil {
		r.respondErr(w, req, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (r *Router) createElement(w http.ResponseWriter, req *http.Request) {
	var in layout.ElementInput
	if err := decode(req, &in); err != nil {
		r.respondErr(w, req, err)
		return
	}
	e, err := r.svc.CreateElement(req.Context(), pathID(req), in, actorID(req))
	if err != nil {
		r.respondErr(w, req, err)
		return
	}
	respondData(w, http.StatusCreated, e)
}

func (r *Router) updateElement(w http.ResponseWriter, req *http.Request) {
	var in layout.ElementInput
	if err := decode(req, &in); err != nil {
		r.respondErr(w, req, err)
		return
	}
	e, err := r.svc.UpdateElement(req.Context(), pathID(req), in, actorID(req))
	if err != nil {
		r.respondErr(w, req, err)
		return
	}
	respondData(w, http.StatusOK, e)
}

func (r *Router) deleteElement(w http.ResponseWriter, req *http.Request) {
	if err := r.svc.DeleteElement(req.Context(), pathID(req), actorID(req)); err != nil {
		r.respondErr(w, req, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// inventory exports the plan's racks, equipment and ports as XLSX
func (r *Router) inventory(w http.ResponseWriter, req *http.Request) {
	fp, err := r.svc.GetFloorPlanByID(req.Context(), pathID(req))
	if err != nil {
		r.respondErr(w, req, err)
		return
	}
	out, err := export.InventoryXLSX(fp)
	if err != nil {
		r.respondErr(w, req, fmt.Errorf("inventory export: %w", err))
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"inventory-%s.xlsx\"", fp.ID))
	w.WriteHeader(http.StatusOK)
	w.Write(out)
}

// serveWs subscribes the caller to a floor plan's change feed
func (r *Router) serveWs(w http.ResponseWriter, req *http.Request) {
	if r.hub == nil {
		respondError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "change feed disabled")
		return
	}
	id := pathID(req)
	if _, err := r.svc.GetFloorPlanByID(req.Context(), id); err != nil {
		r.respondErr(w, req, err)
		return
	}
	r.log.Debug("ws subscribe", zap.String("floor_plan_id", id), zap.String("actor", actorID(req)))
	websocket.ServeWs(r.hub, w, req, id, actorID(req))
}
