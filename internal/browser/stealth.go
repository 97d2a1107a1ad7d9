package browser

import (
	"math/rand"
	"time"

	"github.com/playwright-community/playwright-go"
)

// RandomDelay pauses execution for a random time between min and max (milliseconds)
func RandomDelay(min, max int) {
	if min >= max {
		time.Sleep(time.Duration(min) * time.Millisecond)
		return
	}
	duration := time.Duration(rand.Intn(max-min)+min) * time.Millisecond
	time.Sleep(duration)
}

// MouseJiggle moves the mouse to a few random points inside the viewport.
func MouseJiggle(page playwright.Page) error {
	viewportSize := page.ViewportSize()
	if viewportSize == nil {
		return nil
	}
	for i := 0; i < 3; i++ {
		x := rand.Intn(viewportSize.Width)
		y := rand.Intn(viewportSize.Height)
		if err := page.Mouse().Move(float64(x), float64(y)); err != nil {
			return err
		}
		RandomDelay(100, 300)
	}
	return nil
}

// SmoothScroll scrolls down, back up a little, then to the bottom to trigger
// lazy-loaded listings.
func SmoothScroll(page playwright.Page) error {
	if err := page.Mouse().Wheel(0, 500); err != nil {
		return err
	}
	RandomDelay(300, 700)

	// human-like correction
	if err := page.Mouse().Wheel(0, -200); err != nil {
		return err
	}
	RandomDelay(300, 600)

	_, err := page.Evaluate("window.scrollTo(0, document.body.scrollHeight)")
	return err
}
