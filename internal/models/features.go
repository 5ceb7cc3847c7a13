package models

// FeatureFlags gate optional UI sections. An absent flag means enabled.
type FeatureFlags struct {
	AIChatEnabled               *bool `json:"ai_chat_enabled"`
	AIIllnessSuggestionsEnabled *bool `json:"ai_illness_suggestions_enabled"`
	AIDriveEnabled              *bool `json:"ai_drive_enabled"`
}

func enabled(flag *bool) bool {
	return flag == nil || *flag
}

// ChatEnabled reports whether the chat widget is shown
func (f FeatureFlags) ChatEnabled() bool {
	return enabled(f.AIChatEnabled)
}

// IllnessSuggestionsEnabled reports whether AI illness suggestions are shown
func (f FeatureFlags) IllnessSuggestionsEnabled() bool {
	return enabled(f.AIIllnessSuggestionsEnabled)
}

// DriveAIEnabled reports whether AI drive decorations are shown
func (f FeatureFlags) DriveAIEnabled() bool {
	return enabled(f.AIDriveEnabled)
}
