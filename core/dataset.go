package core

import "fmt"

// Dataset 是一次加载得到的七张表，由调用方独占持有。
type Dataset struct {
	SmallMatrix    *Table
	BigMatrix      *Table
	ItemCategories *Table
	ItemFeatures   *Table
	SocialNetwork  *Table
	UserFeatures   *Table
	Captions       *Table

	// Cleaned 标记是否已应用清洗规则
	Cleaned bool
}

// Tables 按固定顺序返回七张表。
func (d *Dataset) Tables() []*Table {
	return []*Table{
		d.SmallMatrix,
		d.BigMatrix,
		d.ItemCategories,
		d.ItemFeatures,
		d.SocialNetwork,
		d.UserFeatures,
		d.Captions,
	}
}

// Get 按表名取表。
func (d *Dataset) Get(name TableName) *Table {
	if p := d.slot(name); p != nil {
		return *p
	}
	return nil
}

// Set 按表名写入表。
func (d *Dataset) Set(t *Table) error {
	p := d.slot(t.Name)
	if p == nil {
		return NewDomainError(ModuleTable, ErrorCodeInvalidInput, fmt.Sprintf("unknown table %q", t.Name))
	}
	*p = t
	return nil
}

func (d *Dataset) slot(name TableName) **Table {
	switch name {
	case SmallMatrix:
		return &d.SmallMatrix
	case BigMatrix:
		return &d.BigMatrix
	case ItemCategories:
		return &d.ItemCategories
	case ItemFeatures:
		return &d.ItemFeatures
	case SocialNetwork:
		return &d.SocialNetwork
	case UserFeatures:
		return &d.UserFeatures
	case Captions:
		return &d.Captions
	}
	return nil
}
