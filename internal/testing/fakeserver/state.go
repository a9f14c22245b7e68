package fakeserver

// AddInstance appends an instance to the directory.
func (s *Server) AddInstance(in Instance) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.instances = append(s.instances, in)
}

// Instances returns a copy of the directory.
func (s *Server) Instances() []Instance {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Instance(nil), s.instances...)
}

// SetAttachmentPoints replaces the attachment points.
func (s *Server) SetAttachmentPoints(aps ...AttachmentPoint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attachmentPoints = aps
}

// SetResourceLimit sets the maximum number of instances.
func (s *Server) SetResourceLimit(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.limit = n
}

// SetImages replaces the image catalog.
func (s *Server) SetImages(images ...Image) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.images = images
}

// SetRecords replaces the user's build records.
func (s *Server) SetRecords(records ...BuildRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = records
}

// Fail answers every request to path with status and body until
// ClearFailure is called. path is the full request path, e.g.
// "/api/imgbuild/user-images".
func (s *Server) Fail(path string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[path] = &failure{status: status, body: body}
}

// FailTimes answers the next n requests to path with status and body.
func (s *Server) FailTimes(path string, n, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[path] = &failure{status: status, body: body, times: n}
}

// ClearFailure removes a configured failure.
func (s *Server) ClearFailure(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, path)
}

// Expire makes every request other than login fail with 401.
func (s *Server) Expire() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expired = true
}

// Token returns the latest token issued.
func (s *Server) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Requests returns a copy of every request received.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// RequestsTo returns the requests received for path.
func (s *Server) RequestsTo(path string) []Request {
	var out []Request
	for _, r := range s.Requests() {
		if r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

// CountRequests returns how many requests were received for path.
func (s *Server) CountRequests(path string) int {
	return len(s.RequestsTo(path))
}
