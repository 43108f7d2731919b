package common

const (
	StatusSuccess = "success"
	StatusFail    = "fail"
)

// Envelope is the body of every JSON response the service sends.
type Envelope struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func Success(message string, data any) Envelope {
	return Envelope{Status: StatusSuccess, Message: message, Data: data}
}

func SuccessData(data any) Envelope {
	return Envelope{Status: StatusSuccess, Data: data}
}

func Fail(message string) Envelope {
	return Envelope{Status: StatusFail, Message: message}
}
