package request

import (
	"encoding/json"
	"strings"
)

// content_detail 是按 type_name 区分的标签联合：
// 每种申请类型对应一个独立的载荷结构，逐变体穷举校验；
// 变体用不到的字段直接缺省，缺省不是错误

// SlotRef 课表格子定位（班级 + 教室 + 科目 + 日期 + 节次）
type SlotRef struct {
	ClassCode   string `json:"class_code"`
	RoomCode    string `json:"room_code"`
	SubjectCode string `json:"subject_code"`
	Date        string `json:"date"`
	TimeSlotID  int    `json:"time_slot_id"`
}

// TargetSlot 调课目标位置，只需要日期与节次
type TargetSlot struct {
	Date       string `json:"date"`
	TimeSlotID int    `json:"time_slot_id"`
}

// RoomChangeDetail 换教室 / 教室类型变更
type RoomChangeDetail struct {
	SlotRef
	OldRoomType string `json:"old_room_type"`
	NewRoomType string `json:"new_room_type"`
}

// Validate 校验换教室载荷
func (d *RoomChangeDetail) Validate() error {
	if strings.TrimSpace(d.ClassCode) == "" {
		return NewValidationError("换教室申请缺少班级编码")
	}
	if strings.TrimSpace(d.Date) == "" {
		return NewValidationError("换教室申请缺少日期")
	}
	if d.TimeSlotID <= 0 {
		return NewValidationError("换教室申请缺少节次")
	}
	if strings.TrimSpace(d.NewRoomType) == "" && strings.TrimSpace(d.RoomCode) == "" {
		return NewValidationError("换教室申请需要目标教室或目标教室类型")
	}
	return nil
}

// DateMoveDetail 调课：原格子 + 目标位置
type DateMoveDetail struct {
	OldDate SlotRef    `json:"old_date"`
	NewDate TargetSlot `json:"new_date"`
}

// Validate 校验调课载荷
func (d *DateMoveDetail) Validate() error {
	if strings.TrimSpace(d.OldDate.ClassCode) == "" {
		return NewValidationError("调课申请缺少原班级编码")
	}
	if strings.TrimSpace(d.OldDate.Date) == "" || d.OldDate.TimeSlotID <= 0 {
		return NewValidationError("调课申请缺少原日期或节次")
	}
	if strings.TrimSpace(d.NewDate.Date) == "" || d.NewDate.TimeSlotID <= 0 {
		return NewValidationError("调课申请缺少目标日期或节次")
	}
	return nil
}

// LeaveDetail 请假：无结构化课表载荷，事由写在申请单描述里
type LeaveDetail struct{}

// Validate 请假载荷无需校验
func (d *LeaveDetail) Validate() error {
	return nil
}

// SlotChangeItem 批量变更中的一项，换教室与调课二选一
type SlotChangeItem struct {
	RoomChange *RoomChangeDetail `json:"room_change,omitempty"`
	DateMove   *DateMoveDetail   `json:"date_move,omitempty"`
}

// Validate 校验批量项
func (i *SlotChangeItem) Validate() error {
	switch {
	case i.RoomChange != nil && i.DateMove != nil:
		return NewValidationError("批量项不能同时包含换教室与调课")
	case i.RoomChange != nil:
		return i.RoomChange.Validate()
	case i.DateMove != nil:
		return i.DateMove.Validate()
	}
	return NewValidationError("批量项内容为空")
}

// BatchChangeDetail 批量课表变更，保持提交顺序
type BatchChangeDetail struct {
	Items []SlotChangeItem `json:"items"`
}

// Validate 校验批量载荷
func (d *BatchChangeDetail) Validate() error {
	if len(d.Items) == 0 {
		return NewValidationError("批量变更至少需要一项")
	}
	for idx := range d.Items {
		if err := d.Items[idx].Validate(); err != nil {
			return NewValidationError("批量变更第 %d 项不合法: %s", idx+1, err.Error())
		}
	}
	return nil
}

// ContentDetail 申请载荷的统一接口
type ContentDetail interface {
	Validate() error
}

// DecodeContentDetail 按 type_name 解码并校验 content_detail
// 未知类型或载荷结构不符合其类型均返回 ValidationError
func DecodeContentDetail(typeName string, raw []byte) (ContentDetail, error) {
	switch typeName {
	case TypeRoomChange:
		detail := &RoomChangeDetail{}
		if err := decodeInto(raw, detail); err != nil {
			return nil, err
		}
		return detail, detail.Validate()

	case TypeDateMove:
		detail := &DateMoveDetail{}
		if err := decodeInto(raw, detail); err != nil {
			return nil, err
		}
		return detail, detail.Validate()

	case TypeLeave:
		// 请假无结构化载荷，允许为空
		detail := &LeaveDetail{}
		if len(raw) > 0 {
			if err := decodeInto(raw, detail); err != nil {
				return nil, err
			}
		}
		return detail, nil

	case TypeBatchChange:
		detail := &BatchChangeDetail{}
		if err := decodeInto(raw, detail); err != nil {
			return nil, err
		}
		return detail, detail.Validate()
	}

	return nil, NewValidationError("未知的申请类型: %s", typeName)
}

func decodeInto(raw []byte, target any) error {
	if len(raw) == 0 {
		return NewValidationError("申请内容不能为空")
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return NewValidationError("申请内容格式不合法: %s", err.Error())
	}
	return nil
}
