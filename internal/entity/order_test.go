package entity

import (
	"sync"
	"testing"

	"gorm.io/gorm/schema"
)

// 仓库层 Preload 的关联名必须能被 gorm 解析, 否则每次查询都报
// "unsupported relations" 而不是在建模时暴露
func TestConnectionOrderRelations(t *testing.T) {
	s, err := schema.Parse(&ConnectionOrder{}, &sync.Map{}, schema.NamingStrategy{})
	if err != nil {
		t.Fatalf("parse schema: %v", err)
	}
	for _, name := range []string{"User", "Developer", "AccountManager", "Interviewer", "SelectedBank"} {
		if _, ok := s.Relationships.Relations[name]; !ok {
			t.Errorf("ConnectionOrder missing relation %q", name)
		}
	}
}

func TestEntrustmentOrderRelations(t *testing.T) {
	s, err := schema.Parse(&EntrustmentOrder{}, &sync.Map{}, schema.NamingStrategy{})
	if err != nil {
		t.Fatalf("parse schema: %v", err)
	}
	for _, name := range []string{"ConnectionOrder", "User", "Handler"} {
		if _, ok := s.Relationships.Relations[name]; !ok {
			t.Errorf("EntrustmentOrder missing relation %q", name)
		}
	}
}
