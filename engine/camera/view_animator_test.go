package camera

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestEaseInOutCubic(t *testing.T) {
	assert.Equal(t, float32(0), EaseInOutCubic(0))
	assert.Equal(t, float32(0.5), EaseInOutCubic(0.5))
	assert.Equal(t, float32(1), EaseInOutCubic(1))
	assert.Less(t, EaseInOutCubic(0.25), float32(0.25))
	assert.Greater(t, EaseInOutCubic(0.75), float32(0.75))

	prev := float32(0)
	for i := 1; i <= 100; i++ {
		v := EaseInOutCubic(float32(i) / 100)
		assert.GreaterOrEqual(t, v, prev)
		prev = v
	}
}

func TestViewAnimatorAnimateTo(t *testing.T) {
	ctrl := NewCameraController()
	anim := NewViewAnimator(ctrl)

	anim.AnimateTo(mgl32.Vec3{0, 0, 20}, mgl32.Vec3{0, 4, 0}, 0.5)
	assert.True(t, anim.Active())

	assert.True(t, anim.Update(0.25))
	assertVec3InDelta(t, mgl32.Vec3{0, 0, 15}, ctrl.Position(), 1e-4)
	assertVec3InDelta(t, mgl32.Vec3{0, 2, 0}, ctrl.Target(), 1e-4)

	assert.True(t, anim.Update(0.5))
	assert.False(t, anim.Active())
	assertVec3InDelta(t, mgl32.Vec3{0, 0, 20}, ctrl.Position(), 1e-4)
	assertVec3InDelta(t, mgl32.Vec3{0, 4, 0}, ctrl.Target(), 1e-4)

	assert.False(t, anim.Update(0.1))
}

func TestViewAnimatorReplacesRunningTransition(t *testing.T) {
	ctrl := NewCameraController()
	anim := NewViewAnimator(ctrl)

	anim.AnimateTo(mgl32.Vec3{0, 0, 50}, mgl32.Vec3{}, 0.5)
	anim.Update(0.1)
	anim.AnimateTo(mgl32.Vec3{7, 0, 0}, mgl32.Vec3{}, 0.5)
	for anim.Active() {
		anim.Update(0.1)
	}
	assertVec3InDelta(t, mgl32.Vec3{7, 0, 0}, ctrl.Position(), 1e-4)
}

func TestViewAnimatorSnapAndStop(t *testing.T) {
	ctrl := NewCameraController()
	anim := NewViewAnimator(ctrl)

	anim.AnimateTo(mgl32.Vec3{3, 0, 0}, mgl32.Vec3{}, 0)
	assert.False(t, anim.Active())
	assertVec3InDelta(t, mgl32.Vec3{3, 0, 0}, ctrl.Position(), 1e-5)

	anim.AnimateTo(mgl32.Vec3{9, 0, 0}, mgl32.Vec3{}, 1)
	anim.Stop()
	assert.False(t, anim.Update(1))
	assertVec3InDelta(t, mgl32.Vec3{3, 0, 0}, ctrl.Position(), 1e-5)
}

func TestViewAnimatorFocusOn(t *testing.T) {
	ctrl := NewCameraController()
	anim := NewViewAnimator(ctrl)

	anim.FocusOn(mgl32.Vec3{0, 0, -2})
	for anim.Active() {
		anim.Update(DefaultTransitionDuration / 4)
	}
	assertVec3InDelta(t, mgl32.Vec3{0, 0, 1}, ctrl.Position(), 1e-4)
	assertVec3InDelta(t, mgl32.Vec3{0, 0, -2}, ctrl.Target(), 1e-4)

	assertVec3InDelta(t, mgl32.Vec3{0, 0, 3}, FocusPosition(mgl32.Vec3{}, mgl32.Vec3{}), 1e-6)
}
