package pca9685

import "testing"

func TestPreScale(t *testing.T) {
	if p := PreScale(50); p != 0x79 {
		t.Fatalf("Expected 0x79 for 50Hz, got %#x", p)
	}
	if p := PreScale(1526); p != 3 {
		t.Fatalf("Expected the minimum prescaler at 1526Hz, got %d", p)
	}
	if p := PreScale(1); p != 255 {
		t.Fatalf("Expected the maximum prescaler at 1Hz, got %d", p)
	}
}

func TestDutyCycleCounts(t *testing.T) {
	for _, test := range []struct {
		duty     int
		expected uint16
	}{
		{0, 0},
		{49, 2007},
		{99, 4055},
		{150, 4055},
		{-3, 0},
	} {
		if c := DutyCycleCounts(test.duty); c != test.expected {
			t.Errorf("DutyCycleCounts(%d) = %d, expected %d", test.duty, c, test.expected)
		}
	}
}

func TestLevelCounts(t *testing.T) {
	if LevelCounts(true) != PWMMax || LevelCounts(false) != 0 {
		t.Fatal("Levels should be fully on or fully off")
	}
}

func TestAngleCounts(t *testing.T) {
	for _, test := range []struct {
		degrees  float64
		expected uint16
	}{
		{0, 102},
		{90, 307},
		{180, 512},
		{-10, 102},
		{200, 512},
	} {
		if c := AngleCounts(test.degrees, 50); c != test.expected {
			t.Errorf("AngleCounts(%v) = %d, expected %d", test.degrees, c, test.expected)
		}
	}
}

func TestDummyRejectsBadChannels(t *testing.T) {
	d := Dummy(50)
	if err := d.Configure(); err != nil {
		t.Fatal(err)
	}
	if err := d.SetAngle(15, 90); err != nil {
		t.Fatalf("Channel 15 should be valid: %v", err)
	}
	if err := d.SetDutyCycle(16, 10); err == nil {
		t.Fatal("Expected an error for channel 16")
	}
	if err := d.SetLevel(-1, true); err == nil {
		t.Fatal("Expected an error for channel -1")
	}
}
