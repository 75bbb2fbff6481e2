package common

import (
	"fmt"
	"strings"
)

// ErrCode classifies library errors.
type ErrCode int

const (
	ErrNone ErrCode = iota
	ErrFail
	ErrInvalidPcktHdr // header byte matches no known packet layout
	ErrBadPacketSeq   // payload bytes violate the packet layout
	ErrIncompleteEOT  // partial packet left at end of trace
	ErrFileError      // capture file access error
	ErrSourceRead     // byte source read failure
	ErrConfig         // invalid tool configuration
)

// BadStreamIdx marks an error not tied to a position in the byte stream.
const BadStreamIdx = ^uint64(0)

// Error represents the library error object: an error code plus severity
// and, where known, the byte index in the trace stream it relates to.
type Error struct {
	Code    ErrCode
	Sev     Severity
	Idx     uint64
	Message string
}

func NewError(sev Severity, code ErrCode) *Error {
	return &Error{
		Code: code,
		Sev:  sev,
		Idx:  BadStreamIdx,
	}
}

func NewErrorMsg(sev Severity, code ErrCode, msg string) *Error {
	return &Error{
		Code:    code,
		Sev:     sev,
		Idx:     BadStreamIdx,
		Message: msg,
	}
}

func NewErrorWithIdxMsg(sev Severity, code ErrCode, idx uint64, msg string) *Error {
	return &Error{
		Code:    code,
		Sev:     sev,
		Idx:     idx,
		Message: msg,
	}
}

// Error implements the standard error interface.
func (e *Error) Error() string {
	var sb strings.Builder

	switch e.Sev {
	case SeverityError:
		sb.WriteString("ERROR:")
	case SeverityWarning:
		sb.WriteString("WARN :")
	case SeverityInfo:
		sb.WriteString("INFO :")
	default:
		sb.WriteString("DEBUG:")
	}

	sb.WriteString(fmt.Sprintf("0x%04x ", int(e.Code)))

	if desc, ok := errorCodeDesc[e.Code]; ok {
		sb.WriteString(fmt.Sprintf("(%s) [%s]; ", desc.name, desc.msg))
	} else {
		sb.WriteString("(unknown); ")
	}

	if e.Idx != BadStreamIdx {
		sb.WriteString(fmt.Sprintf("Idx=%d; ", e.Idx))
	}

	sb.WriteString(e.Message)
	return sb.String()
}

type errDesc struct {
	name string
	msg  string
}

var errorCodeDesc = map[ErrCode]errDesc{
	ErrNone:           {"ITM_OK", "No Error."},
	ErrFail:           {"ITM_ERR_FAIL", "General failure."},
	ErrInvalidPcktHdr: {"ITM_ERR_INVALID_PCKT_HDR", "Invalid packet header"},
	ErrBadPacketSeq:   {"ITM_ERR_BAD_PACKET_SEQ", "Bad packet sequence"},
	ErrIncompleteEOT:  {"ITM_ERR_INCOMPLETE_EOT", "Incomplete packet at end of trace"},
	ErrFileError:      {"ITM_ERR_FILE_ERROR", "File access error"},
	ErrSourceRead:     {"ITM_ERR_SOURCE_READ", "Trace byte source read error"},
	ErrConfig:         {"ITM_ERR_CONFIG", "Invalid configuration"},
}
