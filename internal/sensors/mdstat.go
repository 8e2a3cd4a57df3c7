package sensors

import (
	"bufio"
	"os"
	"regexp"
	"sort"
	"strings"
)

const DefaultMdstatPath = "/proc/mdstat"

var (
	mdstatArrayRegex  = regexp.MustCompile(`^(md\w+)\s*:`)
	mdstatMemberRegex = regexp.MustCompile(`([a-z][a-z0-9]*)\[\d+\]`)
	partitionRegex    = regexp.MustCompile(`^((?:nvme\d+n\d+)|(?:[a-z]+))p?\d*$`)
)

// ReadMdstatDrives returns the sorted names of all drives that are members of a md array.
// If array is not empty only members of that array are returned.
func ReadMdstatDrives(path string, array string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	drives := map[string]bool{}
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		match := mdstatArrayRegex.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		if len(array) > 0 && match[1] != array {
			continue
		}
		_, members, _ := strings.Cut(line, ":")
		for _, member := range mdstatMemberRegex.FindAllStringSubmatch(members, -1) {
			drives[baseDevice(member[1])] = true
		}
	}
	if err = scanner.Err(); err != nil {
		return nil, err
	}

	result := make([]string, 0, len(drives))
	for drive := range drives {
		result = append(result, drive)
	}
	sort.Strings(result)
	return result, nil
}

// baseDevice strips the partition suffix, sda1 -> sda, nvme0n1p2 -> nvme0n1
func baseDevice(name string) string {
	match := partitionRegex.FindStringSubmatch(name)
	if match == nil {
		return name
	}
	return match[1]
}
