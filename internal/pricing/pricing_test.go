package pricing_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fario/flyschool/internal/pricing"
)

func TestCoursePrice(t *testing.T) {
	t.Run("unit price times quantity", func(t *testing.T) {
		amount, err := pricing.CoursePrice(190, 2, 6)
		assert.NoError(t, err)
		assert.Equal(t, int64(380), amount)
	})

	t.Run("quantity above remaining seats fails", func(t *testing.T) {
		_, err := pricing.CoursePrice(190, 3, 2)
		assert.ErrorIs(t, err, pricing.ErrInsufficientCapacity)
	})

	t.Run("exactly the remaining seats succeeds", func(t *testing.T) {
		amount, err := pricing.CoursePrice(150, 2, 2)
		assert.NoError(t, err)
		assert.Equal(t, int64(300), amount)
	})

	t.Run("zero or negative quantity fails", func(t *testing.T) {
		_, err := pricing.CoursePrice(190, 0, 5)
		assert.ErrorIs(t, err, pricing.ErrInsufficientCapacity)
		_, err = pricing.CoursePrice(190, -1, 5)
		assert.ErrorIs(t, err, pricing.ErrInsufficientCapacity)
	})

	t.Run("zero unit price yields invalid amount", func(t *testing.T) {
		_, err := pricing.CoursePrice(0, 1, 5)
		assert.ErrorIs(t, err, pricing.ErrInvalidAmount)
	})
}

func TestLessonPrice(t *testing.T) {
	t.Run("requested hours below minimum are clamped up", func(t *testing.T) {
		amount, hours, err := pricing.LessonPrice(120, 50, 2, 1, 1)
		assert.NoError(t, err)
		assert.Equal(t, 2, hours)
		assert.Equal(t, int64(120*2+50*1), amount)
	})

	t.Run("requested hours above minimum are billed as requested", func(t *testing.T) {
		amount, hours, err := pricing.LessonPrice(120, 50, 2, 4, 0)
		assert.NoError(t, err)
		assert.Equal(t, 4, hours)
		assert.Equal(t, int64(480), amount)
	})

	t.Run("negative additional people are clamped to zero", func(t *testing.T) {
		amount, _, err := pricing.LessonPrice(100, 40, 2, 2, -3)
		assert.NoError(t, err)
		assert.Equal(t, int64(200), amount)
	})

	t.Run("zero minimum and zero hours fail", func(t *testing.T) {
		_, _, err := pricing.LessonPrice(100, 40, 0, 0, 0)
		assert.ErrorIs(t, err, pricing.ErrInvalidAmount)
	})
}

func TestVoucherPrice(t *testing.T) {
	allowed := []int64{100, 150, 200, 250}

	t.Run("member of the allowed set passes through", func(t *testing.T) {
		amount, err := pricing.VoucherPrice(150, allowed)
		assert.NoError(t, err)
		assert.Equal(t, int64(150), amount)
	})

	t.Run("non-member fails", func(t *testing.T) {
		_, err := pricing.VoucherPrice(120, allowed)
		assert.ErrorIs(t, err, pricing.ErrInvalidVoucherAmount)
	})

	t.Run("empty allowed set rejects everything", func(t *testing.T) {
		_, err := pricing.VoucherPrice(100, nil)
		assert.ErrorIs(t, err, pricing.ErrInvalidVoucherAmount)
	})
}
