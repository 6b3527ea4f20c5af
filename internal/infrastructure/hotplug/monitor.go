package hotplug

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/pilebones/go-udev/netlink"

	"camscope/internal/application"
)

// DefaultDebounce окно, в котором события одной камеры сливаются в одно.
// USB-камера обычно создаёт несколько узлов /dev/videoN подряд.
const DefaultDebounce = 750 * time.Millisecond

// Event подключение или отключение видеоустройства
type Event struct {
	Action string // add или remove
	Device string // /dev/videoN
}

// Handler вызывается после серии событий; получает последнее из них
type Handler func(ctx context.Context, event Event)

// Monitor слушает uevent-сообщения ядра по netlink и сообщает о смене набора камер
type Monitor struct {
	logger   application.Logger
	handler  Handler
	debounce time.Duration

	mu      sync.Mutex
	conn    *netlink.UEventConn
	quit    chan struct{}
	timer   *time.Timer
	pending Event
	running bool
	stopped bool
}

// NewMonitor создаёт монитор; debounce <= 0 означает DefaultDebounce
func NewMonitor(logger application.Logger, debounce time.Duration, handler Handler) *Monitor {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Monitor{
		logger:   logger,
		handler:  handler,
		debounce: debounce,
	}
}

// Start подключается к netlink. Ошибка подключения не фатальна: пересканирование
// остаётся доступным вручную.
func (m *Monitor) Start(ctx context.Context) error {
	if m == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return nil
	}

	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		m.logger.Error("Не удалось подключиться к netlink, автоматическое обнаружение камер отключено: %v", err)
		return nil
	}

	m.conn = conn
	m.quit = make(chan struct{})
	m.running = true
	m.stopped = false

	quit := m.quit
	go m.monitorLoop(ctx, conn, quit)

	m.logger.Info("Мониторинг подключения камер запущен")
	return nil
}

// Stop останавливает мониторинг
func (m *Monitor) Stop() {
	if m == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	close(m.quit)
	m.quit = nil
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	if m.conn != nil {
		_ = m.conn.Close()
		m.conn = nil
	}
	m.running = false
	m.stopped = true

	m.logger.Info("Мониторинг подключения камер остановлен")
}

// Running сообщает, активен ли монитор
func (m *Monitor) Running() bool {
	if m == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *Monitor) monitorLoop(ctx context.Context, conn *netlink.UEventConn, quit <-chan struct{}) {
	queue := make(chan netlink.UEvent)
	errs := make(chan error)

	monitorQuit := conn.Monitor(queue, errs, buildMatcher())

	for {
		select {
		case <-ctx.Done():
			close(monitorQuit)
			return
		case <-quit:
			close(monitorQuit)
			return
		case uevent := <-queue:
			m.handleEvent(ctx, uevent)
		case err := <-errs:
			m.logger.Error("Ошибка мониторинга netlink: %v", err)
		}
	}
}

// buildMatcher SUBSYSTEM=video4linux, ACTION=add|remove
func buildMatcher() netlink.Matcher {
	action := "add|remove"
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(netlink.RuleDefinition{
		Action: &action,
		Env: map[string]string{
			"SUBSYSTEM": "video4linux",
		},
	})
	return rules
}

func (m *Monitor) handleEvent(ctx context.Context, uevent netlink.UEvent) {
	event := Event{Action: string(uevent.Action), Device: deviceName(uevent)}
	if event.Device == "" {
		m.logger.Debug("Событие без имени устройства: %s %s", uevent.Action, uevent.KObj)
		return
	}

	m.logger.Debug("Событие камеры: %s %s", event.Action, event.Device)
	m.schedule(ctx, event)
}

// schedule откладывает вызов обработчика до конца серии событий
func (m *Monitor) schedule(ctx context.Context, event Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.pending = event
	if m.timer != nil {
		m.timer.Reset(m.debounce)
		return
	}
	m.timer = time.AfterFunc(m.debounce, func() {
		m.mu.Lock()
		last := m.pending
		m.timer = nil
		stopped := m.stopped
		m.mu.Unlock()

		if stopped || ctx.Err() != nil || m.handler == nil {
			return
		}
		m.logger.Info("Набор камер изменился (%s %s)", last.Action, last.Device)
		m.handler(ctx, last)
	})
}

// deviceName путь узла устройства из uevent
func deviceName(uevent netlink.UEvent) string {
	if devname := uevent.Env["DEVNAME"]; devname != "" {
		if !strings.HasPrefix(devname, "/") {
			return "/dev/" + devname
		}
		return devname
	}

	devpath := uevent.Env["DEVPATH"]
	if devpath == "" {
		return ""
	}
	parts := strings.Split(devpath, "/")
	return "/dev/" + parts[len(parts)-1]
}
