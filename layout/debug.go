package layout

import (
	"encoding/json"
	"os"
)

// WritePlanJSON 把放置计划输出为 JSON，便于调试或可视化排版结果。
func WritePlanJSON(p *Plan, path string) error {
	if p == nil {
		return nil
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
