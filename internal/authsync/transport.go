package authsync

import "net/http"

// Transport is an http.RoundTripper that authenticates outgoing requests with
// the current bearer token and publishes "auth:expired" when the server
// answers 401.
type Transport struct {
	Base  http.RoundTripper
	State *AuthState
	Bus   *Bus
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if st := t.State.Load(); st.IsAuthenticated && st.Token != "" {
		req = req.Clone(req.Context())
		req.Header.Set("Authorization", "Bearer "+st.Token)
	}

	res, err := t.base().RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if res.StatusCode == http.StatusUnauthorized && t.Bus != nil {
		t.Bus.Publish(Event{Topic: TopicExpired})
	}
	return res, nil
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

// NewClient returns an http.Client using a Transport over s's state and bus.
func (s *Synchronizer) NewClient() *http.Client {
	return &http.Client{Transport: &Transport{State: s.state, Bus: s.bus}}
}
