package fakeserver

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
)

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Email == "" {
		http.Error(w, "Invalid credentials", http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	s.email = body.Email
	s.expired = false
	s.mu.Unlock()
	http.SetCookie(w, &http.Cookie{Name: "scionlab", Value: "session", Path: "/"})
	writeMessage(w, "Logged in")
}

func (s *Server) handleLogout(w http.ResponseWriter, _ *http.Request) {
	writeMessage(w, "Logged out")
}

func (s *Server) handleUserPageData(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, map[string]any{
		"user": map[string]any{
			"email":        s.email,
			"firstName":    "Test",
			"lastName":     "User",
			"organisation": "Example",
			"isAdmin":      false,
		},
		"resourceLimit":     s.limit,
		"attachmentPoints":  append([]AttachmentPoint{}, s.attachmentPoints...),
		"resourceInstances": append([]Instance{}, s.instances...),
	})
}

func (s *Server) handleGenerate(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	if len(s.instances) >= s.limit {
		s.mu.Unlock()
		http.Error(w, "You have reached the maximum number of ASes", http.StatusBadRequest)
		return
	}
	s.instances = append(s.instances, Instance{ASID: s.newID(), Type: "1"})
	s.mu.Unlock()
	writeMessage(w, "AS generated")
}

func (s *Server) handleConfigure(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ASID      string `json:"asID"`
		UserEmail string `json:"userEmail"`
		IsVPN     bool   `json:"isVPN"`
		IP        string `json:"ip"`
		ServerIA  string `json:"serverIA"`
		Label     string `json:"label"`
		Type      int    `json:"type"`
		Port      int    `json:"port"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Error decoding JSON", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.instances {
		if s.instances[i].ASID != body.ASID {
			continue
		}
		s.instances[i].IsVPN = body.IsVPN
		s.instances[i].IP = body.IP
		s.instances[i].Port = body.Port
		s.instances[i].ServerIA = body.ServerIA
		s.instances[i].Label = body.Label
		s.instances[i].Type = strconv.Itoa(body.Type)
		s.instances[i].Status = 1
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("AS configured"))
		return
	}
	http.Error(w, "AS not found", http.StatusNotFound)
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["asID"]
	s.mu.Lock()
	for i := range s.instances {
		if s.instances[i].ASID == id {
			s.instances = append(s.instances[:i], s.instances[i+1:]...)
			s.mu.Unlock()
			writeMessage(w, "AS removed")
			return
		}
	}
	s.mu.Unlock()
	http.Error(w, "AS not found", http.StatusNotFound)
}

func (s *Server) handleDownloadTarball(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["asID"]
	w.Header().Set("Content-Type", "application/gzip")
	w.Header().Set("Content-Disposition", `attachment; filename="`+id+`.tar.gz"`)
	_, _ = w.Write([]byte("tarball:" + id))
}

func (s *Server) handleImages(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, append([]Image{}, s.images...))
}

func (s *Server) handleUserImages(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, append([]BuildRecord{}, s.records...))
}

func (s *Server) handleCreateImage(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["asID"]
	image := r.FormValue("image_name")
	if image == "" {
		http.Error(w, "Missing image name", http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	s.records = append(s.records, BuildRecord{
		Image:        image,
		ASID:         id,
		Status:       "pending",
		DownloadLink: "/download/" + image + "-" + id + ".img",
	})
	s.mu.Unlock()
	writeMessage(w, "Build job submitted")
}

func (s *Server) handleDownloadFile(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/octet-stream")
	_, _ = w.Write([]byte("image:" + mux.Vars(r)["file"]))
}
