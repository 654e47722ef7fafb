package voice

// clientMessage is what the browser sends over the voice websocket.
// Types: init, audio, text, start_listening, stop_listening, set_voice.
type clientMessage struct {
	Type  string `json:"type"`
	Audio string `json:"audio,omitempty"` // base64 audio chunk
	Text  string `json:"text,omitempty"`
	Voice string `json:"voice,omitempty"`
}

// serverMessage is what we send back.
// Types: ready, audio, assistant_transcript, user_transcript, action_result, error.
type serverMessage struct {
	Type    string `json:"type"`
	Audio   string `json:"audio,omitempty"` // base64 audio
	Text    string `json:"text,omitempty"`
	Success bool   `json:"success,omitempty"`
	Action  string `json:"action,omitempty"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}
