package property

// Property は検証とオブザーバ通知を備えた値コンテナ
// 値の保管先は node として差し替え可能で、Link / Derive によって
// 他のセルへ委譲できる（ハンドル自体は安定している）
type Property[T any] struct {
	validator func(T) T
	node      node[T]
}

// node は値の保管先バリアント（root / linked / derived）の内部契約
type node[T any] interface {
	read() T
	write(fn func(T) T)
	observe(fn func(T))
	// adopt はオブザーバを初回呼び出しなしで引き継ぐ
	adopt(observers []func(T))
	// detach は移植対象のオブザーバを取り出す（root のみ保持している）
	detach() []func(T)
}

// New は検証なしの新しいセルを作成する
func New[T any](initial T) *Property[T] {
	return NewValidated(initial, func(v T) T { return v })
}

// NewValidated はバリデータ付きの新しいセルを作成する
// 初期値にもバリデータが適用される
func NewValidated[T any](initial T, validator func(T) T) *Property[T] {
	return &Property[T]{
		validator: validator,
		node: &rootNode[T]{
			value:     validator(initial),
			validator: validator,
		},
	}
}

// Get は現在の値を返す
func (p *Property[T]) Get() T {
	return p.node.read()
}

// Set は値を置き換える（Write の糖衣）
func (p *Property[T]) Set(value T) {
	p.Write(func(T) T { return value })
}

// Read は現在の値で fn を呼び出す。オブザーバ内からの再入も可能
func (p *Property[T]) Read(fn func(T)) {
	fn(p.node.read())
}

// Write は値を validator(fn(old)) で置き換え、登録順に全オブザーバへ
// 新しい値を通知する。通知中に登録されたオブザーバは次回の書き込みから
// 通知される。オブザーバ内からの同一セルへの書き込みは、進行中の通知が
// 完了した後に順次適用される
func (p *Property[T]) Write(fn func(T) T) {
	p.node.write(fn)
}

// Observe はオブザーバを登録する。登録時に現在の値で一度だけ即時
// 呼び出されるため、新しい購読者は登録直後から同期された状態になる
func (p *Property[T]) Observe(fn func(T)) {
	p.node.observe(fn)
}

// Link はこのセルの保管先を target への透過的な別名に差し替える
// 既存のオブザーバは target へ移植され、以後は target の書き込みで
// 発火する（移植時の即時呼び出しは行わない）
func (p *Property[T]) Link(target *Property[T]) {
	observers := p.node.detach()
	target.node.adopt(observers)
	p.node = &linkedNode[T]{target: target}
}

// Derive はこのセルの保管先を、型の異なる target への変換付き委譲に
// 差し替える。読み書きは fromTarget / toTarget を通して行われ、
// toTarget は target の旧値を受け取るため、ローカル型が持たない
// フィールドを保持したまま更新できる。既存のオブザーバは変換を挟んで
// target へ移植される
func Derive[T, U any](p *Property[T], target *Property[U], toTarget func(U, T) U, fromTarget func(U) T) {
	observers := p.node.detach()
	wrapped := make([]func(U), 0, len(observers))
	for _, fn := range observers {
		fn := fn
		wrapped = append(wrapped, func(v U) { fn(fromTarget(v)) })
	}
	target.node.adopt(wrapped)
	p.node = &derivedNode[T, U]{
		target:     target,
		toTarget:   toTarget,
		fromTarget: fromTarget,
		validator:  p.validator,
	}
}

// Notify は書き込みのたびに mapFn で変換した値をチャンネルへ転送する
// オブザーバを登録する。受信側が既にいない場合の送信失敗は握りつぶし、
// 他のオブザーバへの通知を妨げない
func Notify[T, R any](p *Property[T], ch chan<- R, mapFn func(T) R) {
	p.Observe(func(v T) {
		defer func() {
			// クローズ済みチャンネルへの送信は「購読者がいない」と
			// 同義なので無視する
			_ = recover()
		}()
		ch <- mapFn(v)
	})
}

// Propagate は書き込みのたびに mapFn で変換した値を other へ書き込む
// オブザーバを登録する
func Propagate[T, R any](p *Property[T], other *Property[R], mapFn func(T) R) {
	p.Observe(func(v T) {
		other.Set(mapFn(v))
	})
}

// rootNode は値・バリデータ・オブザーバを直接保持する
type rootNode[T any] struct {
	value     T
	validator func(T) T
	observers []func(T)

	// 再入検出用。通知中の書き込みは deferred に退避する
	notifying bool
	deferred  []func(T) T
}

func (n *rootNode[T]) read() T {
	return n.value
}

func (n *rootNode[T]) write(fn func(T) T) {
	if n.notifying {
		n.deferred = append(n.deferred, fn)
		return
	}

	n.value = n.validator(fn(n.value))

	// 通知中に追加されたオブザーバへはこの書き込みを通知しない
	n.notifying = true
	count := len(n.observers)
	for i := 0; i < count; i++ {
		n.observers[i](n.value)
	}
	n.notifying = false

	// 通知中に退避した書き込みを順次適用する
	for len(n.deferred) > 0 {
		next := n.deferred[0]
		n.deferred = n.deferred[1:]
		n.write(next)
	}
}

func (n *rootNode[T]) observe(fn func(T)) {
	fn(n.value)
	n.observers = append(n.observers, fn)
}

func (n *rootNode[T]) adopt(observers []func(T)) {
	n.observers = append(n.observers, observers...)
}

func (n *rootNode[T]) detach() []func(T) {
	observers := n.observers
	n.observers = nil
	return observers
}

// linkedNode は全ての操作をそのまま target へ転送する。値は持たない
type linkedNode[T any] struct {
	target *Property[T]
}

func (n *linkedNode[T]) read() T {
	return n.target.Get()
}

func (n *linkedNode[T]) write(fn func(T) T) {
	n.target.Write(fn)
}

func (n *linkedNode[T]) observe(fn func(T)) {
	n.target.Observe(fn)
}

func (n *linkedNode[T]) adopt(observers []func(T)) {
	n.target.node.adopt(observers)
}

func (n *linkedNode[T]) detach() []func(T) {
	// オブザーバは Link 時点で既に target へ移植済み
	return nil
}

// derivedNode は toTarget / fromTarget を通して target へ委譲する
// 独自の状態は持たず、target の書き込みが唯一の真実となる
type derivedNode[T, U any] struct {
	target     *Property[U]
	toTarget   func(U, T) U
	fromTarget func(U) T
	validator  func(T) T
}

func (n *derivedNode[T, U]) read() T {
	return n.fromTarget(n.target.Get())
}

func (n *derivedNode[T, U]) write(fn func(T) T) {
	n.target.Write(func(old U) U {
		local := n.validator(fn(n.fromTarget(old)))
		return n.toTarget(old, local)
	})
}

func (n *derivedNode[T, U]) observe(fn func(T)) {
	n.target.Observe(func(v U) { fn(n.fromTarget(v)) })
}

func (n *derivedNode[T, U]) adopt(observers []func(T)) {
	wrapped := make([]func(U), 0, len(observers))
	for _, fn := range observers {
		fn := fn
		wrapped = append(wrapped, func(v U) { fn(n.fromTarget(v)) })
	}
	n.target.node.adopt(wrapped)
}

func (n *derivedNode[T, U]) detach() []func(T) {
	// オブザーバは Derive 時点で既に target へ移植済み
	return nil
}
