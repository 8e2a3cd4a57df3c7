package util

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/mitchellh/go-homedir"
	"github.com/natefinch/atomic"
)

// CheckFilePermissionsForExecution checks whether the given filePath owner, group and permissions
// are safe to use this file for execution by fanhold.
func CheckFilePermissionsForExecution(filePath string) (bool, error) {
	file, err := filepath.EvalSymlinks(filePath)
	if err != nil {
		return false, err
	}

	info, err := os.Stat(file)
	if os.IsNotExist(err) {
		return false, errors.New("file not found")
	} else if err != nil {
		return false, err
	}

	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return false, errors.New("unable to read file ownership")
	}
	if stat.Uid != 0 {
		return false, errors.New("owner is not root")
	}

	mode := info.Mode()
	if stat.Gid != 0 && mode&os.FileMode(0o020) != 0 {
		return false, errors.New("group is not root but has write permission")
	}
	if mode&os.FileMode(0o002) != 0 {
		return false, errors.New("others have write permission")
	}

	return true, nil
}

// ExpandPath resolves a leading ~ to the home directory of the current user.
func ExpandPath(path string) string {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return path
	}
	return expanded
}

func ReadIntFromFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return -1, err
	}
	text := strings.TrimSpace(string(data))
	if len(text) <= 0 {
		return -1, fmt.Errorf("file is empty: %s", path)
	}
	return strconv.Atoi(text)
}

// ReadFloatFromFile reads a single number, e.g. a millidegree value of a temp*_input file
func ReadFloatFromFile(path string) (float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	text := strings.TrimSpace(string(data))
	if len(text) <= 0 {
		return 0, fmt.Errorf("file is empty: %s", path)
	}
	return strconv.ParseFloat(text, 64)
}

// WriteIntToFile writes a single integer to a file path.
// sysfs attributes cannot be replaced, so this is a plain in-place write.
func WriteIntToFile(value int, path string) error {
	if evaluatedPath, err := filepath.EvalSymlinks(path); err == nil && len(evaluatedPath) > 0 {
		path = evaluatedPath
	}
	return os.WriteFile(path, []byte(strconv.Itoa(value)), 0644)
}

// WriteFileAtomic replaces the content of path, so readers never see a partially written file.
func WriteFileAtomic(path string, data []byte) error {
	if evaluatedPath, err := filepath.EvalSymlinks(path); err == nil && len(evaluatedPath) > 0 {
		path = evaluatedPath
	}
	return atomic.WriteFile(path, strings.NewReader(string(data)))
}
