package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// ValidatePortList 校验以逗号分隔的端口列表，空串视为合法
func ValidatePortList(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}

	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		port, err := strconv.Atoi(part)
		if err != nil {
			return fmt.Errorf("端口 %q 不是数字", part)
		}
		if port < 1 || port > 65535 {
			return fmt.Errorf("端口 %d 超出范围", port)
		}
	}

	return nil
}

func JoinPorts(ports []string) string {
	return strings.Join(ports, ",")
}
