// Package ipc guards the data directory against a second running instance.
package ipc

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
)

// ErrAlreadyRunning is returned by Acquire when the PID file belongs to a live process.
var ErrAlreadyRunning = errors.New("another instance is already running")

// WritePID записывает PID в файл
func WritePID(pidPath string, pid int) error {
	if err := os.MkdirAll(filepath.Dir(pidPath), 0o700); err != nil {
		return fmt.Errorf("failed to create PID directory: %w", err)
	}
	if err := os.WriteFile(pidPath, []byte(fmt.Sprintf("%d\n", pid)), 0o600); err != nil {
		return fmt.Errorf("failed to write PID file: %w", err)
	}
	return nil
}

// ReadPID читает PID из файла
func ReadPID(pidPath string) (int, error) {
	data, err := os.ReadFile(pidPath)
	if err != nil {
		return 0, err
	}

	var pid int
	if _, err := fmt.Sscanf(string(data), "%d", &pid); err != nil {
		return 0, fmt.Errorf("malformed PID file %s: %w", pidPath, err)
	}
	return pid, nil
}

// IsRunning проверяет что процесс запущен
func IsRunning(pid int) bool {
	if pid <= 0 {
		return false
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	// Send signal 0 - проверяет существование процесса
	return process.Signal(syscall.Signal(0)) == nil
}

// Acquire writes the current PID unless a live process already owns the
// file. A stale or malformed file is overwritten. The returned release
// removes the file.
func Acquire(pidPath string) (release func() error, err error) {
	if pid, err := ReadPID(pidPath); err == nil && pid != os.Getpid() && IsRunning(pid) {
		return nil, fmt.Errorf("%w (pid %d, %s)", ErrAlreadyRunning, pid, pidPath)
	}

	if err := WritePID(pidPath, os.Getpid()); err != nil {
		return nil, err
	}
	return func() error { return Remove(pidPath) }, nil
}

// Remove удаляет PID файл
func Remove(pidPath string) error {
	if err := os.Remove(pidPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
