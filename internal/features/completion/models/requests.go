package models

// BeginRequest starts a completion. With Relay the server signs and sends the
// transaction itself when it holds a key for the caller.
// @Description Start a task completion
type BeginRequest struct {
	TaskID uint64 `json:"task_id" binding:"required" example:"1"`
	Relay  bool   `json:"relay" example:"false"`
}

// TxRequest reports the hash of a wallet-signed completeTask transaction.
// @Description Submitted transaction hash
type TxRequest struct {
	TxHash string `json:"tx_hash" binding:"required" example:"0x9fc76417374aa880d4449a1f7f31ec597f00b1f6f3dd2d66f4c9c6c445836d8b"`
}

// AttemptResponse wraps an attempt with the error that ended it, if any.
// @Description Completion attempt
type AttemptResponse struct {
	Attempt *Attempt `json:"attempt"`
	Error   string   `json:"error,omitempty"`
}
