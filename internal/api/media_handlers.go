package api

import (
	"net/http"

	"github.com/tmkeil/variantconf/internal/media"
	"github.com/tmkeil/variantconf/internal/model"
)

func (s *Server) handleUploadPicture(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		s.writeError(w, r, err)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer file.Close()

	n, err := s.store.GetNode(r.Context(), s.store.DB(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	pic, err := media.UploadPicture(r.Context(), s.media, id, header.Filename, r.FormValue("description"), file)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	n.Pictures = append(n.Pictures, pic)
	if err := s.admin.UpdateNode(r.Context(), n); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, pic)
}

type deletePictureRequest struct {
	URL string `json:"url"`
}

func (s *Server) handleDeletePicture(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req deletePictureRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	n, err := s.store.GetNode(r.Context(), s.store.DB(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	remaining := n.Pictures[:0]
	for _, p := range n.Pictures {
		if p.URL != req.URL {
			remaining = append(remaining, p)
		}
	}
	n.Pictures = remaining
	if err := media.DeletePicture(r.Context(), s.media, req.URL); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.admin.UpdateNode(r.Context(), n); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type addLinkRequest struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (s *Server) handleAddLink(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req addLinkRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	n, err := s.store.GetNode(r.Context(), s.store.DB(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	link := media.AddLink(req.URL, req.Title, req.Description)
	n.Links = append(n.Links, link)
	if err := s.admin.UpdateNode(r.Context(), n); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, link)
}

type deleteLinkRequest struct {
	URL string `json:"url"`
}

func (s *Server) handleDeleteLink(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req deleteLinkRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	n, err := s.store.GetNode(r.Context(), s.store.DB(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	remaining := make([]model.Link, 0, len(n.Links))
	for _, l := range n.Links {
		if l.URL != req.URL {
			remaining = append(remaining, l)
		}
	}
	n.Links = remaining
	if err := s.admin.UpdateNode(r.Context(), n); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
