package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/xelth-com/facilitymap/internal/layout"
	"github.com/xelth-com/facilitymap/internal/models"
	"github.com/xelth-com/facilitymap/internal/services/printer"
)

func (r *Router) listEquipment(w http.ResponseWriter, req *http.Request) {
	rows, err := r.svc.ListEquipment(req.Context(), pathID(req))
	if err != nil {
		r.respondErr(w, req, err)
		return
	}
	respondData(w, http.StatusOK, rows)
}

// createEquipment mounts equipment; an occupied or out-of-range slot is a 409
func (r *Router) createEquipment(w http.ResponseWriter, req *http.Request) {
	var in layout.EquipmentInput
	if err := decode(req, &in); err != nil {
		r.respondErr(w, req, err)
		return
	}
	e, err := r.svc.CreateEquipment(req.Context(), pathID(req), in, actorID(req))
	if err != nil {
		r.respondErr(w, req, err)
		return
	}
	respondData(w, http.StatusCreated, e)
}

func (r *Router) getEquipment(w http.ResponseWriter, req *http.Request) {
	e, err := r.svc.GetEquipment(req.Context(), pathID(req))
	if err != nil {
		r.respondErr(w, req, err)
		return
	}
	respondData(w, http.StatusOK, e)
}

func (r *Router) updateEquipment(w http.ResponseWriter, req *http.Request) {
	var in layout.EquipmentInput
	if err := decode(req, &in); err != nil {
		r.respondErr(w, req, err)
		return
	}
	e, err := r.svc.UpdateEquipment(req.Context(), pathID(req), in, actorID(req))
	if err != nil {
		r.respondErr(w, req, err)
		return
	}
	respondData(w, http.StatusOK, e)
}

func (r *Router) moveEquipment(w http.ResponseWriter, req *http.Request) {
	var in layout.MoveInput
	if err := decode(req, &in); err != nil {
		r.respondErr(w, req, err)
		return
	}
	e, err := r.svc.MoveEquipment(req.Context(), pathID(req), in, actorID(req))
	if err != nil {
		r.respondErr(w, req, err)
		return
	}
	respondData(w, http.StatusOK, e)
}

func (r *Router) deleteEquipment(w http.ResponseWriter, req *http.Request) {
	if err := r.svc.DeleteEquipment(req.Context(), pathID(req), actorID(req)); err != nil {
		r.respondErr(w, req, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (r *Router) listPorts(w http.ResponseWriter, req *http.Request) {
	rows, err := r.svc.ListPorts(req.Context(), pathID(req))
	if err != nil {
		r.respondErr(w, req, err)
		return
	}
	respondData(w, http.StatusOK, rows)
}

func (r *Router) createPort(w http.ResponseWriter, req *http.Request) {
	var in layout.PortInput
	if err := decode(req, &in); err != nil {
		r.respondErr(w, req, err)
		return
	}
	p, err := r.svc.CreatePort(req.Context(), pathID(req), in, actorID(req))
	if err != nil {
		r.respondErr(w, req, err)
		return
	}
	respondData(w, http.StatusCreated, p)
}

func (r *Router) updatePort(w http.ResponseWriter, req *http.Request) {
	var in layout.PortInput
	if err := decode(req, &in); err != nil {
		r.respondErr(w, req, err)
		return
	}
	p, err := r.svc.UpdatePort(req.Context(), pathID(req), in, actorID(req))
	if err != nil {
		r.respondErr(w, req, err)
		return
	}
	respondData(w, http.StatusOK, p)
}

func (r *Router) deletePort(w http.ResponseWriter, req *http.Request) {
	if err := r.svc.DeletePort(req.Context(), pathID(req), actorID(req)); err != nil {
		r.respondErr(w, req, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func respondPDF(w http.ResponseWriter, name string, out []byte) {
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=\"%s\"", name))
	w.WriteHeader(http.StatusOK)
	w.Write(out)
}

// rackElevation draws the rack front view with QR codes per item
func (r *Router) rackElevation(w http.ResponseWriter, req *http.Request) {
	rack, err := r.svc.GetRack(req.Context(), pathID(req))
	if err != nil {
		r.respondErr(w, req, err)
		return
	}
	out, err := printer.GenerateElevationPDF(rack, r.baseURL)
	if err != nil {
		r.respondErr(w, req, fmt.Errorf("elevation pdf: %w", err))
		return
	}
	respondPDF(w, "elevation-"+rack.ID+".pdf", out)
}

// rackLabels prints a label sheet for every item in the rack
func (r *Router) rackLabels(w http.ResponseWriter, req *http.Request) {
	rack, err := r.svc.GetRack(req.Context(), pathID(req))
	if err != nil {
		r.respondErr(w, req, err)
		return
	}
	out, err := printer.GenerateLabelsPDF(rack.Equipment, rack.Name, printer.DefaultLabelConfig(r.baseURL))
	if err != nil {
		r.respondErr(w, req, fmt.Errorf("label pdf: %w", err))
		return
	}
	respondPDF(w, "labels-"+rack.ID+".pdf", out)
}

func (r *Router) equipmentLabel(w http.ResponseWriter, req *http.Request) {
	e, err := r.svc.GetEquipment(req.Context(), pathID(req))
	if err != nil {
		r.respondErr(w, req, err)
		return
	}
	rack, err := r.svc.GetRack(req.Context(), e.RackID)
	if err != nil {
		r.respondErr(w, req, err)
		return
	}
	out, err := printer.GenerateLabelsPDF([]models.Equipment{*e}, rack.Name, printer.DefaultLabelConfig(r.baseURL))
	if err != nil {
		r.respondErr(w, req, fmt.Errorf("label pdf: %w", err))
		return
	}
	respondPDF(w, "label-"+e.ID+".pdf", out)
}

// labelRedirect forwards a scanned QR label to the equipment page
func (r *Router) labelRedirect(w http.ResponseWriter, req *http.Request) {
	id := pathID(req)
	if _, err := uuid.Parse(id); err != nil {
		r.respondErr(w, req, layout.NotFound("equipment", id))
		return
	}
	target := strings.TrimRight(r.baseURL, "/") + "/equipment/" + id
	http.Redirect(w, req, target, http.StatusFound)
}
