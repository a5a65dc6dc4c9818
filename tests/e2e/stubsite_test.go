// Copyright (c) 2026 TTBT Enterprises LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package e2e

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"sync"
	"testing"
)

// stubSite mimics the club portal's surfaces: a scripted login page, the
// reservation calendar with its grid, and the framed booking dialog. Just
// enough ASP.NET-flavored markup for the selector chains to bite on.
type stubSite struct {
	server *http.Server
	base   string

	mu       sync.Mutex
	bookings []string
}

const stubUsername = "alice"
const stubPassword = "hunter2"

func startStubSite(t *testing.T) *stubSite {
	t.Helper()
	s := &stubSite{}

	mux := http.NewServeMux()
	mux.HandleFunc("/member-login", s.loginPage)
	mux.HandleFunc("/login", s.loginAPI)
	mux.HandleFunc("/member-area", s.memberArea)
	mux.HandleFunc("/Default.aspx", s.calendarPage)
	mux.HandleFunc("/rbmPop/dialog.aspx", s.dialogPage)
	mux.HandleFunc("/book", s.bookAPI)

	l, err := net.Listen("tcp", "0.0.0.0:0")
	if err != nil {
		t.Fatalf("Failed to listen: %v", err)
	}
	_, port, _ := net.SplitHostPort(l.Addr().String())

	// The browser may run in a container; E2E_HOSTNAME is how it reaches us.
	host := os.Getenv("E2E_HOSTNAME")
	if host == "" {
		host = "localhost"
	}
	s.base = fmt.Sprintf("http://%s:%s", host, port)

	s.server = &http.Server{Handler: mux}
	go s.server.Serve(l)
	t.Cleanup(func() { s.server.Close() })
	return s
}

func (s *stubSite) bookingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.bookings)
}

func (s *stubSite) loginPage(w http.ResponseWriter, r *http.Request) {
	fmt.Fprint(w, `<!DOCTYPE html><html><body>
<input type="text" id="masterPageUC_MPCA378459_ctl00_ctl02_txtUsername" placeholder="Username">
<input type="password" id="masterPageUC_MPCA378459_ctl00_ctl02_txtPassword" placeholder="Password">
<input type="button" id="btnSecureLogin" value="Log In" onclick="doLogin()">
<div id="loginError"></div>
<script>
function doLogin() {
	var u = document.getElementById('masterPageUC_MPCA378459_ctl00_ctl02_txtUsername').value;
	var p = document.getElementById('masterPageUC_MPCA378459_ctl00_ctl02_txtPassword').value;
	fetch('/login', {method: 'POST', headers: {'Content-Type': 'application/json'},
		body: JSON.stringify({username: u, password: p})})
	.then(function(r) {
		if (r.ok) { window.location.href = '/member-area'; }
		else { document.getElementById('loginError').textContent = 'Invalid credentials'; }
	});
}
</script>
</body></html>`)
}

func (s *stubSite) loginAPI(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil ||
		creds.Username != stubUsername || creds.Password != stubPassword {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *stubSite) memberArea(w http.ResponseWriter, r *http.Request) {
	fmt.Fprint(w, `<!DOCTYPE html><html><body><h1>Member Area</h1></body></html>`)
}

func (s *stubSite) calendarPage(w http.ResponseWriter, r *http.Request) {
	fmt.Fprint(w, `<!DOCTYPE html><html><body>
<input type="text" id="txtDate" value="">
<table>
<tr><td>7:00 PM</td>
<td class="rbm_Cell"><div class="rbm_TimeSlotPanelSlotAvailable" onclick="openDialog()">North Pickleball Court</div></td>
<td class="rbm_Cell"><div class="rbm_TimeSlotPanelNoSlots">South Pickleball Court</div></td>
</tr>
<tr><td>8:00 PM</td>
<td class="rbm_Cell"><div class="rbm_TimeSlotPanelNoSlots">North Pickleball Court</div></td>
<td class="rbm_Cell"><div class="rbm_TimeSlotPanelSlotAvailable" onclick="openDialog()">South Pickleball Court</div></td>
</tr>
</table>
<div id="dialogHost"></div>
<script>
function openDialog() {
	var f = document.createElement('iframe');
	f.src = '/rbmPop/dialog.aspx';
	f.width = 400; f.height = 300;
	document.getElementById('dialogHost').appendChild(f);
}
function closeDialog() {
	document.getElementById('dialogHost').innerHTML = '';
}
</script>
</body></html>`)
}

func (s *stubSite) dialogPage(w http.ResponseWriter, r *http.Request) {
	fmt.Fprint(w, `<!DOCTYPE html><html><body>
<select id="drpDuration">
<option>60 Minutes</option>
<option>90 Minutes</option>
<option selected>120 Minutes</option>
</select>
<a href="javascript:void(0)" id="lbBook" onclick="doBook()">Reserve</a>
<a href="javascript:void(0)" id="lbCancel" onclick="parent.closeDialog()">Cancel Reservation</a>
<div id="confirmation" style="display:none">
Booked. <a href="javascript:void(0)" onclick="parent.closeDialog()">Click here to close</a>
</div>
<script>
function doBook() {
	var d = document.getElementById('drpDuration');
	// sendBeacon survives the frame being torn down by the close control.
	navigator.sendBeacon('/book', JSON.stringify({duration: d.options[d.selectedIndex].text}));
	document.getElementById('confirmation').style.display = 'block';
}
</script>
</body></html>`)
}

func (s *stubSite) bookAPI(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Duration string `json:"duration"`
	}
	json.NewDecoder(r.Body).Decode(&req)
	s.mu.Lock()
	s.bookings = append(s.bookings, req.Duration)
	s.mu.Unlock()
	w.WriteHeader(http.StatusOK)
}
