package request

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeContentDetail(t *testing.T) {
	t.Run("换教室载荷合法", func(t *testing.T) {
		raw := []byte(`{
			"class_code": "10A1",
			"room_code": "P201",
			"subject_code": "MATH",
			"date": "2026-09-01",
			"time_slot_id": 3,
			"old_room_type": "normal",
			"new_room_type": "lab"
		}`)
		detail, err := DecodeContentDetail(TypeRoomChange, raw)
		require.NoError(t, err)
		rc, ok := detail.(*RoomChangeDetail)
		require.True(t, ok)
		assert.Equal(t, "10A1", rc.ClassCode)
		assert.Equal(t, "lab", rc.NewRoomType)
	})

	t.Run("换教室缺少班级编码", func(t *testing.T) {
		raw := []byte(`{"date": "2026-09-01", "time_slot_id": 3, "new_room_type": "lab"}`)
		_, err := DecodeContentDetail(TypeRoomChange, raw)
		require.Error(t, err)
		assert.True(t, IsValidationError(err))
	})

	t.Run("调课载荷合法", func(t *testing.T) {
		raw := []byte(`{
			"old_date": {"class_code": "10A1", "date": "2026-09-01", "time_slot_id": 2},
			"new_date": {"date": "2026-09-03", "time_slot_id": 5}
		}`)
		detail, err := DecodeContentDetail(TypeDateMove, raw)
		require.NoError(t, err)
		dm, ok := detail.(*DateMoveDetail)
		require.True(t, ok)
		assert.Equal(t, 5, dm.NewDate.TimeSlotID)
	})

	t.Run("调课缺少目标位置", func(t *testing.T) {
		raw := []byte(`{"old_date": {"class_code": "10A1", "date": "2026-09-01", "time_slot_id": 2}}`)
		_, err := DecodeContentDetail(TypeDateMove, raw)
		require.Error(t, err)
		assert.True(t, IsValidationError(err))
	})

	t.Run("请假允许空载荷", func(t *testing.T) {
		_, err := DecodeContentDetail(TypeLeave, nil)
		assert.NoError(t, err)
		_, err = DecodeContentDetail(TypeLeave, []byte(`{}`))
		assert.NoError(t, err)
	})

	t.Run("批量载荷逐项校验", func(t *testing.T) {
		raw := []byte(`{
			"items": [
				{"room_change": {"class_code": "10A1", "date": "2026-09-01", "time_slot_id": 1, "new_room_type": "lab"}},
				{"date_move": {
					"old_date": {"class_code": "10A2", "date": "2026-09-02", "time_slot_id": 4},
					"new_date": {"date": "2026-09-04", "time_slot_id": 1}
				}}
			]
		}`)
		detail, err := DecodeContentDetail(TypeBatchChange, raw)
		require.NoError(t, err)
		bc, ok := detail.(*BatchChangeDetail)
		require.True(t, ok)
		assert.Len(t, bc.Items, 2)
	})

	t.Run("批量不能为空", func(t *testing.T) {
		_, err := DecodeContentDetail(TypeBatchChange, []byte(`{"items": []}`))
		require.Error(t, err)
		assert.True(t, IsValidationError(err))
	})

	t.Run("批量项不能同时包含两种变更", func(t *testing.T) {
		raw := []byte(`{
			"items": [{
				"room_change": {"class_code": "10A1", "date": "2026-09-01", "time_slot_id": 1, "new_room_type": "lab"},
				"date_move": {
					"old_date": {"class_code": "10A1", "date": "2026-09-01", "time_slot_id": 1},
					"new_date": {"date": "2026-09-02", "time_slot_id": 2}
				}
			}]
		}`)
		_, err := DecodeContentDetail(TypeBatchChange, raw)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "第 1 项")
	})

	t.Run("未知类型返回校验错误", func(t *testing.T) {
		_, err := DecodeContentDetail("unknown_type", []byte(`{}`))
		require.Error(t, err)
		assert.True(t, IsValidationError(err))
	})

	t.Run("非法 JSON 返回校验错误", func(t *testing.T) {
		_, err := DecodeContentDetail(TypeRoomChange, []byte(`not-json`))
		require.Error(t, err)
		assert.True(t, IsValidationError(err))
	})
}
