// Package errs defines the kernel's user-observable error codes, following
// biscuit's defs.Err_t convention: a small integer type threaded through
// return values instead of the Go error interface, so it can be written
// directly into a syscall's result register or an IPC response word.
package errs

/// Err_t is a user-observable error code. The zero value, NONE, means success.
type Err_t int

const (
	/// NONE indicates success.
	NONE Err_t = iota
	/// IPCPidNotFound: ipc_send's target is not a live process.
	IPCPidNotFound
	/// IPCMethodNotKnown: the server has no handler for the requested method id.
	IPCMethodNotKnown
	/// IPCMethodNotImplemented: the method is recognised but unimplemented.
	IPCMethodNotImplemented
	/// VirtioSetupFail: a VirtIO device driver (out of CORE scope) failed setup.
	VirtioSetupFail
	/// FilesystemGeneric: a filesystem service (out of CORE scope) reported an error.
	FilesystemGeneric
)

var names = map[Err_t]string{
	NONE:                    "NONE",
	IPCPidNotFound:          "IPC__PID_NOT_FOUND",
	IPCMethodNotKnown:       "IPC__METHOD_NOT_KNOWN",
	IPCMethodNotImplemented: "IPC__METHOD_NOT_IMPLEMENTED",
	VirtioSetupFail:         "VIRTIO__SETUP_FAIL",
	FilesystemGeneric:       "FILESYSTEM__ERROR",
}

/// String renders the error's symbolic name for diagnostics.
func (e Err_t) String() string {
	if s, ok := names[e]; ok {
		return s
	}
	return "ERR_UNKNOWN"
}

/// Ok reports whether e is NONE.
func (e Err_t) Ok() bool {
	return e == NONE
}
