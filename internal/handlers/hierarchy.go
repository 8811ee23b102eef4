package handlers

import (
	"net/http"

	"github.com/xelth-com/facilitymap/internal/layout"
)

func (r *Router) listSubstations(w http.ResponseWriter, req *http.Request) {
	rows, err := r.svc.ListSubstations(req.Context())
	if err != nil {
		r.respondErr(w, req, err)
		return
	}
	respondData(w, http.StatusOK, rows)
}

func (r *Router) getSubstation(w http.ResponseWriter, req *http.Request) {
	sub, err := r.svc.GetSubstation(req.Context(), pathID(req))
	if err != nil {
		r.respondErr(w, req, err)
		return
	}
	respondData(w, http.StatusOK, sub)
}

func (r *Router) createSubstation(w http.ResponseWriter, req *http.Request) {
	var in layout.SubstationInput
	if err := decode(req, &in); err != nil {
		r.respondErr(w, req, err)
		return
	}
	sub, err := r.svc.CreateSubstation(req.Context(), in, actorID(req))
	if err != nil {
		r.respondErr(w, req, err)
		return
	}
	respondData(w, http.StatusCreated, sub)
}

func (r *Router) updateSubstation(w http.ResponseWriter, req *http.Request) {
	var in layout.SubstationInput
	if err := decode(req, &in); err != nil {
		r.respondErr(w, req, err)
		return
	}
	sub, err := r.svc.UpdateSubstation(req.Context(), pathID(req), in, actorID(req))
	if err != nil {
		r.respondErr(w, req, err)
		return
	}
	respondData(w, http.StatusOK, sub)
}

func (r *Router) deleteSubstation(w http.ResponseWriter, req *http.Request) {
	if err := r.svc.DeleteSubstation(req.Context(), pathID(req), actorID(req)); err != nil {
		r.respondErr(w, req, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (r *Router) listFloors(w http.ResponseWriter, req *http.Request) {
	rows, err := r.svc.ListFloors(req.Context(), pathID(req))
	if err != nil {
		r.respondErr(w, req, err)
		return
	}
	respondData(w, http.StatusOK, rows)
}

func (r *Router) getFloor(w http.ResponseWriter, req *http.Request) {
	f, err := r.svc.GetFloor(req.Context(), pathID(req))
	if err != nil {
		r.respondErr(w, req, err)
		return
	}
	respondData(w, http.StatusOK, f)
}

func (r *Router) createFloor(w http.ResponseWriter, req *http.Request) {
	var in layout.FloorInput
	if err := decode(req, &in); err != nil {
		r.respondErr(w, req, err)
		return
	}
	f, err := r.svc.CreateFloor(req.Context(), pathID(req), in, actorID(req))
	if err != nil {
		r.respondErr(w, req, err)
		return
	}
	respondData(w, http.StatusCreated, f)
}

func (r *Router) updateFloor(w http.ResponseWriter, req *http.Request) {
	var in layout.FloorInput
	if err := decode(req, &in); err != nil {
		r.respondErr(w, req, err)
		return
	}
	f, err := r.svc.UpdateFloor(req.Context(), pathID(req), in, actorID(req))
	if err != nil {
		r.respondErr(w, req, err)
		return
	}
	respondData(w, http.StatusOK, f)
}

func (r *Router) deleteFloor(w http.ResponseWriter, req *http.Request) {
	if err := r.svc.DeleteFloor(req.Context(), pathID(req), actorID(req)); err != nil {
		r.respondErr(w, req, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
