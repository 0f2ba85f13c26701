//go:build windows

package daemon

import (
	"bytes"
	"encoding/binary"
	"syscall"
	"unsafe"

	"fyne.io/systray"
	"go.uber.org/zap"
)

var (
	user32      = syscall.NewLazyDLL("user32.dll")
	messageBoxW = user32.NewProc("MessageBoxW")
)

const (
	MB_OK              = 0x00000000
	MB_ICONINFORMATION = 0x00000040
)

// TrayApp represents system tray application
type TrayApp struct {
	daemon *Daemon
	logger *zap.Logger
	quit   chan struct{}
}

// NewTrayApp creates a new system tray application
func NewTrayApp(daemon *Daemon, logger *zap.Logger) (*TrayApp, error) {
	return &TrayApp{
		daemon: daemon,
		logger: logger,
		quit:   make(chan struct{}),
	}, nil
}

// Run starts the system tray application (blocks until Quit)
func (t *TrayApp) Run() {
	systray.Run(t.onReady, t.onExit)
}

func (t *TrayApp) onReady() {
	systray.SetIcon(clockIcon())
	systray.SetTitle("AT")
	systray.SetTooltip("Attendance Tracker")

	mClockIn := systray.AddMenuItem("Clock In", "Start today's session")
	mClockOut := systray.AddMenuItem("Clock Out", "End the active session")
	systray.AddSeparator()
	mStatus := systray.AddMenuItem("Status", "Show this month's attendance")
	systray.AddSeparator()
	mQuit := systray.AddMenuItem("Quit", "Exit the application")

	// Start daemon logic in background
	go t.daemon.runLoop()

	go func() {
		for {
			select {
			case <-mClockIn.ClickedCh:
				t.logger.Info("Clock In clicked from tray")
				go t.daemon.ClockIn()
			case <-mClockOut.ClickedCh:
				t.logger.Info("Clock Out clicked from tray")
				go t.daemon.ClockOut()
			case <-mStatus.ClickedCh:
				t.logger.Info("Status clicked from tray")
				t.showStatus()
			case <-mQuit.ClickedCh:
				t.logger.Info("Quit clicked from tray")
				t.daemon.Stop()
				systray.Quit()
				return
			case <-t.quit:
				systray.Quit()
				return
			}
		}
	}()
}

func (t *TrayApp) onExit() {
	t.logger.Info("System tray exited")
}

// Stop stops the system tray application
func (t *TrayApp) Stop() {
	select {
	case <-t.quit:
	default:
		close(t.quit)
	}
}

// SetSessionText shows the session timer in the tooltip
func (t *TrayApp) SetSessionText(text string) {
	systray.SetTooltip("Attendance Tracker\n" + text)
}

// ShowNotification shows a notification
func (t *TrayApp) ShowNotification(title, message string) {
	// fyne.io/systray has no notification support; log and show a message box
	t.logger.Info("Notification", zap.String("title", title), zap.String("message", message))
	go showMessageBox(title, message)
}

// showStatus shows this month's attendance summary
func (t *TrayApp) showStatus() {
	message := t.daemon.GetStatus()
	t.logger.Info("Current status", zap.String("status", message))
	showMessageBox("Attendance Status", message)
}

func showMessageBox(title, message string) {
	titlePtr, _ := syscall.UTF16PtrFromString(title)
	messagePtr, _ := syscall.UTF16PtrFromString(message)
	messageBoxW.Call(
		0,
		uintptr(unsafe.Pointer(messagePtr)),
		uintptr(unsafe.Pointer(titlePtr)),
		uintptr(MB_OK|MB_ICONINFORMATION),
	)
}

// clockIcon builds a 16x16 32-bit ICO with a filled circle
func clockIcon() []byte {
	const size = 16

	var pixels bytes.Buffer
	// BMP rows are stored bottom-up, BGRA
	for y := size - 1; y >= 0; y-- {
		for x := 0; x < size; x++ {
			dx, dy := x*2-size+1, y*2-size+1
			if dx*dx+dy*dy <= (size-2)*(size-2) {
				pixels.Write([]byte{0xD0, 0x80, 0x20, 0xFF})
			} else {
				pixels.Write([]byte{0, 0, 0, 0})
			}
		}
	}
	mask := make([]byte, size*4) // AND mask, 32-bit aligned rows

	var bmp bytes.Buffer
	header := struct {
		Size          uint32
		Width, Height int32
		Planes        uint16
		BitCount      uint16
		Compression   uint32
		SizeImage     uint32
		XPels, YPels  int32
		ClrUsed       uint32
		ClrImportant  uint32
	}{40, size, size * 2, 1, 32, 0, uint32(pixels.Len() + len(mask)), 0, 0, 0, 0}
	_ = binary.Write(&bmp, binary.LittleEndian, header)
	bmp.Write(pixels.Bytes())
	bmp.Write(mask)

	var ico bytes.Buffer
	_ = binary.Write(&ico, binary.LittleEndian, [3]uint16{0, 1, 1})
	_ = binary.Write(&ico, binary.LittleEndian, struct {
		Width, Height, Colors, Reserved uint8
		Planes, BitCount                uint16
		BytesInRes, ImageOffset         uint32
	}{size, size, 0, 0, 1, 32, uint32(bmp.Len()), 22})
	ico.Write(bmp.Bytes())

	return ico.Bytes()
}
