package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"pathways/internal/docstore"
	"pathways/internal/workbook"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckStaticDir verifies the client bundle directory. A missing directory
// only disables static hosting, so it is reported as optional.
func CheckStaticDir(path string) Result {
	const name = "Static files"
	if path == "" {
		return Result{Name: name, Passed: true, Optional: true, Detail: "disabled"}
	}
	info, err := os.Stat(path)
	switch {
	case err == nil && info.IsDir():
		if err := unix.Access(path, unix.R_OK|unix.X_OK); err != nil {
			return Result{Name: name, Optional: true, Detail: fmt.Sprintf("%s (error: not readable: %v)", path, err)}
		}
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (readable)", path)}
	case err == nil:
		return Result{Name: name, Optional: true, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	default:
		return Result{Name: name, Optional: true, Detail: fmt.Sprintf("%s (missing; / will return 404)", path)}
	}
}

// CheckWorkbook opens the workbook and counts its sheets.
func CheckWorkbook(path string) Result {
	const name = "Workbook"
	sheets, err := workbook.ListSheets(path)
	switch {
	case errors.Is(err, workbook.ErrFileNotFound):
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
	case err != nil:
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d sheets)", path, len(sheets))}
}

// CheckDocument verifies that a persisted layout document, if present, holds
// valid JSON. An absent document has simply not been saved yet.
func CheckDocument(name, path string, store *docstore.Store) Result {
	_, err := store.ReadRaw(path)
	switch {
	case err == nil:
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (valid)", path)}
	case errors.Is(err, docstore.ErrNotFound):
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (not yet saved)", path)}
	case errors.Is(err, docstore.ErrCorrupt):
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not valid JSON)", path)}
	default:
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
}

// CheckListener reports whether a server already answers on bind or, if
// not, whether the address is free to listen on.
func CheckListener(ctx context.Context, bind string) Result {
	const name = "API listener"

	checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	client := &http.Client{Timeout: 2 * time.Second}
	req, err := http.NewRequestWithContext(checkCtx, http.MethodGet, "http://"+bind+"/healthz", nil)
	if err == nil {
		if resp, err := client.Do(req); err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (server running)", bind)}
			}
		}
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(checkCtx, "tcp", bind)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: cannot listen: %v)", bind, err)}
	}
	_ = ln.Close()
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (available)", bind)}
}
