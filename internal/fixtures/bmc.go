package fixtures

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
)

const (
	BMCFirmwarePath = "/redfish/v1/UpdateService/FirmwareInventory/BMC_Firmware"
	RootAccountPath = "/redfish/v1/AccountService/Accounts/root"

	BMCFirmwareDescription = "BMC image"
	BMCFirmwareID          = "BMC_Firmware"
	BMCFirmwareVersion     = "BF-23.10-4"
)

// Request records a request received by the FakeBMC.
type Request struct {
	Method   string
	Path     string
	Username string
	Password string
}

// FakeBMC is a Redfish BMC serving the firmware inventory and root account resources over TLS
// with a self-signed certificate.
//
// Requests are authenticated with basic auth against a single account,
// a PATCH on the root account changes its password.
type FakeBMC struct {
	*httptest.Server

	mu             sync.Mutex
	username       string
	password       string
	firmwareBody   []byte
	ignorePatch    bool
	patchStatus    int
	firmwareStatus int
	requests       []Request
}

// NewFakeBMC starts a FakeBMC accepting the given credentials, the caller is expected to Close() it.
func NewFakeBMC(username, password string) *FakeBMC {
	f := &FakeBMC{username: username, password: password}

	body, _ := json.Marshal(map[string]string{
		"@odata.id":   BMCFirmwarePath,
		"Description": BMCFirmwareDescription,
		"Id":          BMCFirmwareID,
		"Name":        "Software Inventory",
		"Version":     BMCFirmwareVersion,
	})

	f.firmwareBody = body
	f.Server = httptest.NewTLSServer(http.HandlerFunc(f.serveHTTP))

	return f
}

// Password returns the current account password.
func (f *FakeBMC) Password() string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.password
}

// SetFirmwareBody sets the response body returned for the firmware inventory resource.
func (f *FakeBMC) SetFirmwareBody(body string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.firmwareBody = []byte(body)
}

// SetFirmwareStatus makes the firmware inventory resource respond with the given status code.
func (f *FakeBMC) SetFirmwareStatus(code int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.firmwareStatus = code
}

// SetPatchStatus makes the account resource respond to PATCH requests with the given status code
// without changing the password.
func (f *FakeBMC) SetPatchStatus(code int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.patchStatus = code
}

// IgnorePasswordChange has the BMC acknowledge a password change without applying it.
func (f *FakeBMC) IgnorePasswordChange() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.ignorePatch = true
}

// Requests returns the requests received in order.
func (f *FakeBMC) Requests() []Request {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]Request(nil), f.requests...)
}

func (f *FakeBMC) serveHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	user, pass, _ := r.BasicAuth()
	f.requests = append(f.requests, Request{Method: r.Method, Path: r.URL.Path, Username: user, Password: pass})

	w.Header().Set("Content-Type", "application/json")

	if user != f.username || pass != f.password {
		writeRedfishError(w, http.StatusUnauthorized, "Base.1.8.1.InsufficientPrivilege")
		return
	}

	switch r.URL.Path {
	case BMCFirmwarePath:
		if r.Method != http.MethodGet {
			writeRedfishError(w, http.StatusMethodNotAllowed, "Base.1.8.1.OperationNotAllowed")
			return
		}

		if f.firmwareStatus != 0 {
			writeRedfishError(w, f.firmwareStatus, "Base.1.8.1.InternalError")
			return
		}

		_, _ = w.Write(f.firmwareBody)
	case RootAccountPath:
		if r.Method != http.MethodPatch {
			writeRedfishError(w, http.StatusMethodNotAllowed, "Base.1.8.1.OperationNotAllowed")
			return
		}

		if f.patchStatus != 0 {
			writeRedfishError(w, f.patchStatus, "Base.1.8.1.InternalError")
			return
		}

		payload := map[string]string{}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload["Password"] == "" {
			writeRedfishError(w, http.StatusBadRequest, "Base.1.8.1.MalformedJSON")
			return
		}

		if !f.ignorePatch {
			f.password = payload["Password"]
		}

		w.WriteHeader(http.StatusNoContent)
	default:
		writeRedfishError(w, http.StatusNotFound, "Base.1.8.1.ResourceMissingAtURI")
	}
}

func writeRedfishError(w http.ResponseWriter, code int, messageID string) {
	w.WriteHeader(code)

	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]interface{}{
			"code":    messageID,
			"message": http.StatusText(code),
		},
	})
}
