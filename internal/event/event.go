package event

// Type identifies what kind of interaction a record describes.
type Type string

const (
	// Page-level events.
	TypePageView         Type = "page_view"
	TypePageReloaded     Type = "page_reloaded"
	TypePageLoaded       Type = "page_loaded"
	TypeNextPage         Type = "next_page"
	TypePageTooSmall     Type = "page_too_small"
	TypeValidationFailed Type = "validation_failed"

	// Consent-overlay lifecycle.
	TypeCMPShown  Type = "cmp_shown"
	TypeCMPClosed Type = "cmp_closed"

	// Consent choices.
	TypeCMPAccept          Type = "cmp_accept"
	TypeCMPReject          Type = "cmp_reject"
	TypeCMPSavePreferences Type = "cmp_save_preferences"
	TypeConsentRetracted   Type = "consent_retracted"

	// Interactions.
	TypeClick       Type = "click"
	TypeButtonClick Type = "button_click"
	TypeToggleOn    Type = "toggle_on"
	TypeToggleOff   Type = "toggle_off"
	TypePanelOpen   Type = "panel_open"
	TypePanelClose  Type = "panel_close"
	TypeLinkClick   Type = "link_click"
	TypeScroll      Type = "scroll"

	// Consent-history panel.
	TypeHistoryItemUpdate Type = "history_item_update"
	TypeHistoryPanelOpen  Type = "history_panel_open"
	TypeHistoryPanelClose Type = "history_panel_close"

	// Session boundaries.
	TypeSessionStarted Type = "session_started"
	TypeSessionEnded   Type = "session_ended"
)

// Target identifies the UI element or scope an event refers to.
type Target string

const (
	// Overlay structural targets.
	TargetCMPFirstLayer  Target = "cmp_first_layer"
	TargetCMPSecondLayer Target = "cmp_second_layer"

	// Overlay buttons.
	TargetBtnAcceptAll   Target = "btn_accept_all"
	TargetBtnRejectAll   Target = "btn_reject_all"
	TargetBtnMoreOptions Target = "btn_more_options"
	TargetBtnSaveCustom  Target = "btn_save_custom"
	TargetBtnCloseCMP    Target = "btn_close_cmp"
	TargetBtnBack        Target = "btn_back"

	// Category toggles.
	TargetToggleNecessary Target = "toggle_necessary"
	TargetToggleTracking  Target = "toggle_tracking"
	TargetToggleAnalytics Target = "toggle_analytics"
	TargetToggleMarketing Target = "toggle_marketing"

	// Consent-history panel.
	TargetIconConsentHistory  Target = "icon_consent_history"
	TargetPanelConsentHistory Target = "panel_consent_history"
	TargetBtnRetractConsent   Target = "btn_retract_consent"

	// Page controls and scopes.
	TargetOutsideCMP Target = "outside_cmp"
	TargetNextButton Target = "next_button"
	TargetWindow     Target = "window"
	TargetDocument   Target = "document"
)

// DesignBaseline is the design variant stamped on every record emitted
// by this client. Other variants exist only in the study backend.
const DesignBaseline = "baseline"

// Record is one append-only log entry. SiteName is empty for
// session-scoped events (session boundaries, viewport guard).
//
// Field names follow the backend log table columns; note that the step
// index is stored in the trial_index column.
type Record struct {
	SessionID     string `json:"session_id"`
	DesignVariant string `json:"design_variant"`
	SiteName      string `json:"site_name"`
	StepIndex     int    `json:"trial_index"`
	Type          Type   `json:"event_type"`
	Target        Target `json:"event_target"`
}

// IsValid reports whether the event type is part of the vocabulary.
func (t Type) IsValid() bool {
	switch t {
	case TypePageView, TypePageReloaded, TypePageLoaded, TypeNextPage,
		TypePageTooSmall, TypeValidationFailed,
		TypeCMPShown, TypeCMPClosed,
		TypeCMPAccept, TypeCMPReject, TypeCMPSavePreferences, TypeConsentRetracted,
		TypeClick, TypeButtonClick, TypeToggleOn, TypeToggleOff,
		TypePanelOpen, TypePanelClose, TypeLinkClick, TypeScroll,
		TypeHistoryItemUpdate, TypeHistoryPanelOpen, TypeHistoryPanelClose,
		TypeSessionStarted, TypeSessionEnded:
		return true
	default:
		return false
	}
}
