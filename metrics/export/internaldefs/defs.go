package internaldefs

import (
	schoolauth "github.com/vidkid7/SchoolManagementSystem-sub009"
)

const namespace = "schoolauth"

type CounterDef struct {
	ID   schoolauth.MetricID
	Name string
	Help string
}

type HistogramDef struct {
	ID   schoolauth.MetricID
	Name string
	Help string
}

// AuditDroppedName is exported next to the engine counters by every exporter.
const (
	AuditDroppedName = namespace + "_audit_dropped_total"
	AuditDroppedHelp = "Audit events dropped because the dispatcher buffer was full."
)

var CounterDefs = []CounterDef{
	{ID: schoolauth.MetricLoginSuccess, Name: namespace + "_login_success_total", Help: "Successful logins."},
	{ID: schoolauth.MetricLoginFailure, Name: namespace + "_login_failure_total", Help: "Logins rejected for bad credentials."},
	{ID: schoolauth.MetricLoginLocked, Name: namespace + "_login_locked_total", Help: "Logins refused because the account was locked."},
	{ID: schoolauth.MetricLoginInactive, Name: namespace + "_login_inactive_total", Help: "Logins refused because the account was not active."},
	{ID: schoolauth.MetricAccountLocked, Name: namespace + "_account_locked_total", Help: "Failed attempts that reached the lockout threshold."},
	{ID: schoolauth.MetricRefreshSuccess, Name: namespace + "_refresh_success_total", Help: "Successful token refreshes."},
	{ID: schoolauth.MetricRefreshFailure, Name: namespace + "_refresh_failure_total", Help: "Failed token refreshes."},
	{ID: schoolauth.MetricRefreshReuseDetected, Name: namespace + "_refresh_reuse_detected_total", Help: "Refresh tokens presented after being superseded."},
	{ID: schoolauth.MetricLogout, Name: namespace + "_logout_total", Help: "Logouts."},
	{ID: schoolauth.MetricSessionCreated, Name: namespace + "_session_created_total", Help: "Issued token pairs."},
	{ID: schoolauth.MetricSessionInvalidated, Name: namespace + "_session_invalidated_total", Help: "Sessions invalidated by logout or password change."},
	{ID: schoolauth.MetricPasswordChangeSuccess, Name: namespace + "_password_change_success_total", Help: "Successful password changes."},
	{ID: schoolauth.MetricPasswordChangeInvalidOld, Name: namespace + "_password_change_invalid_old_total", Help: "Password changes with a wrong current password."},
	{ID: schoolauth.MetricPasswordChangeReuseRejected, Name: namespace + "_password_change_reuse_rejected_total", Help: "Password changes rejected for reusing the current password."},
	{ID: schoolauth.MetricPasswordRehashed, Name: namespace + "_password_rehashed_total", Help: "Password hashes upgraded after login."},
	{ID: schoolauth.MetricPasswordResetRequest, Name: namespace + "_password_reset_request_total", Help: "Password reset requests."},
	{ID: schoolauth.MetricPasswordResetConfirmSuccess, Name: namespace + "_password_reset_confirm_success_total", Help: "Completed password resets."},
	{ID: schoolauth.MetricPasswordResetConfirmFailure, Name: namespace + "_password_reset_confirm_failure_total", Help: "Rejected password reset confirmations."},
	{ID: schoolauth.MetricAccountUnlocked, Name: namespace + "_account_unlocked_total", Help: "Administrative unlocks."},
}

var HistogramDefs = []HistogramDef{
	{ID: schoolauth.MetricValidateLatency, Name: namespace + "_validate_latency_seconds", Help: "Access token validation latency."},
}

// HistogramBounds are the bucket upper bounds in seconds. The last bucket is +Inf.
var HistogramBounds = []float64{0.001, 0.002, 0.005, 0.01, 0.025, 0.05, 0.1}

func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}

// SumEstimate approximates a histogram sum from bucket upper bounds. The
// +Inf bucket is counted at the last finite bound.
func SumEstimate(raw [8]uint64) float64 {
	var sum float64
	for i, n := range raw {
		bound := HistogramBounds[len(HistogramBounds)-1]
		if i < len(HistogramBounds) {
			bound = HistogramBounds[i]
		}
		sum += float64(n) * bound
	}
	return sum
}
