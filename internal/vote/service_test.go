package vote

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/SlpAus/campus-election-backend/internal/candidate"
	"github.com/SlpAus/campus-election-backend/internal/election"
	"github.com/SlpAus/campus-election-backend/internal/platform/database"
	"github.com/SlpAus/campus-election-backend/internal/voter"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB 为每个测试创建一个独立的内存数据库并迁移全部表结构。
// database.RDB保持为nil，镜像操作会被跳过。
func setupTestDB(t *testing.T, name string) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("无法打开测试数据库: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("无法获取底层连接池: %v", err)
	}
	// 单连接串行化所有事务，避免内存SQLite的表锁冲突
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(&voter.Voter{}, &candidate.Candidate{}, &election.VotingSettings{}, &Vote{})
	if err != nil {
		t.Fatalf("无法迁移测试表结构: %v", err)
	}

	database.DB = db
	database.RDB = nil
}

func createTestVoter(t *testing.T) string {
	t.Helper()
	id := uuid.NewString()
	if err := voter.ActivateVoter(id); err != nil {
		t.Fatalf("无法创建测试投票人: %v", err)
	}
	return id
}

func createTestCandidate(t *testing.T, name string) *candidate.Candidate {
	t.Helper()
	cand, err := candidate.CreateCandidate(name, "bio", "/img.png", "https://example.com")
	if err != nil {
		t.Fatalf("无法创建测试候选人: %v", err)
	}
	return cand
}

func candidateCount(t *testing.T, id uint) int {
	t.Helper()
	var cand candidate.Candidate
	if err := database.DB.First(&cand, id).Error; err != nil {
		t.Fatalf("无法读取候选人 %d: %v", id, err)
	}
	return cand.VoteCount
}

func TestCastVoteScenario(t *testing.T) {
	setupTestDB(t, "cast_scenario")

	u1 := createTestVoter(t)
	c1 := createTestCandidate(t, "C1")
	c2 := createTestCandidate(t, "C2")

	if err := CastVote(u1, c1.ID, time.Now()); err != nil {
		t.Fatalf("首次投票应当成功, got: %v", err)
	}
	if got := candidateCount(t, c1.ID); got != 1 {
		t.Errorf("C1计数应为1, got %d", got)
	}

	// 同一投票人换一个目标再投，必须被拒绝且不产生任何副作用
	err := CastVote(u1, c2.ID, time.Now())
	if !errors.Is(err, ErrAlreadyVoted) {
		t.Fatalf("重复投票应返回ErrAlreadyVoted, got: %v", err)
	}
	if got := candidateCount(t, c2.ID); got != 0 {
		t.Errorf("C2计数应保持0, got %d", got)
	}

	var ledgerCount int64
	database.DB.Model(&Vote{}).Where("voter_uuid = ?", u1).Count(&ledgerCount)
	if ledgerCount != 1 {
		t.Errorf("账本中应只有1张U1的选票, got %d", ledgerCount)
	}

	status, err := GetVoteStatus(u1)
	if err != nil {
		t.Fatalf("无法读取投票状态: %v", err)
	}
	if !status.HasVoted {
		t.Error("HasVoted应为true")
	}
	if status.CandidateID == nil || *status.CandidateID != c1.ID {
		t.Errorf("投票状态应指向C1, got %v", status.CandidateID)
	}
}

func TestCastVoteVoterNotFound(t *testing.T) {
	setupTestDB(t, "cast_voter_not_found")
	c1 := createTestCandidate(t, "C1")

	err := CastVote(uuid.NewString(), c1.ID, time.Now())
	if !errors.Is(err, voter.ErrVoterNotFound) {
		t.Fatalf("未登记的投票人应返回ErrVoterNotFound, got: %v", err)
	}
}

func TestCastVoteCandidateNotFound(t *testing.T) {
	setupTestDB(t, "cast_candidate_not_found")
	u1 := createTestVoter(t)

	err := CastVote(u1, 9999, time.Now())
	if !errors.Is(err, candidate.ErrCandidateNotFound) {
		t.Fatalf("不存在的候选人应返回ErrCandidateNotFound, got: %v", err)
	}
}

func TestCastVoteArchivedCandidate(t *testing.T) {
	setupTestDB(t, "cast_archived")
	u1 := createTestVoter(t)
	c1 := createTestCandidate(t, "C1")

	if err := candidate.ArchiveCandidate(c1.ID); err != nil {
		t.Fatalf("归档失败: %v", err)
	}

	err := CastVote(u1, c1.ID, time.Now())
	if !errors.Is(err, candidate.ErrCandidateNotFound) {
		t.Fatalf("归档候选人不应是合法目标, got: %v", err)
	}
}

func TestCastVoteDeadlineBoundary(t *testing.T) {
	setupTestDB(t, "cast_deadline")

	deadline := time.Now().Add(time.Hour).Truncate(time.Millisecond)
	if _, err := election.SetDeadline(database.DB, &deadline); err != nil {
		t.Fatalf("无法设置截止时间: %v", err)
	}

	tests := []struct {
		name    string
		now     time.Time
		wantErr error
	}{
		{"截止时刻整点视为已截止", deadline, ErrVotingClosed},
		{"截止后更晚的时刻已截止", deadline.Add(time.Minute), ErrVotingClosed},
		{"截止前1毫秒仍然开放", deadline.Add(-time.Millisecond), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := createTestVoter(t)
			c := createTestCandidate(t, "C-"+tt.name)

			err := CastVote(u, c.ID, tt.now)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("期望成功, got: %v", err)
				}
				if got := candidateCount(t, c.ID); got != 1 {
					t.Errorf("计数应为1, got %d", got)
				}
			} else if !errors.Is(err, tt.wantErr) {
				t.Fatalf("期望 %v, got: %v", tt.wantErr, err)
			}
		})
	}
}

func TestCastVoteUniqueConstraintBackstop(t *testing.T) {
	setupTestDB(t, "cast_backstop")
	u1 := createTestVoter(t)
	c1 := createTestCandidate(t, "C1")
	c2 := createTestCandidate(t, "C2")

	// 模拟应用层检查被并发绕过的情形：
	// 账本中已有该投票人的选票，但HasVoted标记尚未更新
	if err := database.DB.Create(&Vote{VoterUUID: u1, CandidateID: c1.ID}).Error; err != nil {
		t.Fatalf("无法预置选票: %v", err)
	}

	err := CastVote(u1, c2.ID, time.Now())
	if !errors.Is(err, ErrAlreadyVoted) {
		t.Fatalf("唯一约束应兜底返回ErrAlreadyVoted, got: %v", err)
	}
	if got := candidateCount(t, c2.ID); got != 0 {
		t.Errorf("失败的投票不应产生计数副作用, got %d", got)
	}
}

func TestCastVoteConcurrentDuplicates(t *testing.T) {
	setupTestDB(t, "cast_concurrent")
	u1 := createTestVoter(t)
	c1 := createTestCandidate(t, "C1")

	const attempts = 100
	var wg sync.WaitGroup
	results := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- CastVote(u1, c1.ID, time.Now())
		}()
	}
	wg.Wait()
	close(results)

	var succeeded, rejected int
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrAlreadyVoted):
			rejected++
		default:
			t.Fatalf("意外的错误类型: %v", err)
		}
	}

	if succeeded != 1 {
		t.Errorf("恰好1次投票应当成功, got %d", succeeded)
	}
	if rejected != attempts-1 {
		t.Errorf("其余%d次应返回ErrAlreadyVoted, got %d", attempts-1, rejected)
	}
	if got := candidateCount(t, c1.ID); got != 1 {
		t.Errorf("最终计数应为1, got %d", got)
	}

	var ledgerCount int64
	database.DB.Model(&Vote{}).Where("voter_uuid = ?", u1).Count(&ledgerCount)
	if ledgerCount != 1 {
		t.Errorf("账本中应只有1张选票, got %d", ledgerCount)
	}
}

func TestCastVoteDifferentVotersSameCandidate(t *testing.T) {
	setupTestDB(t, "cast_parallel_voters")
	c1 := createTestCandidate(t, "C1")

	const voters = 20
	ids := make([]string, voters)
	for i := range ids {
		ids[i] = createTestVoter(t)
	}

	var wg sync.WaitGroup
	errs := make(chan error, voters)
	for _, id := range ids {
		wg.Add(1)
		go func(voterID string) {
			defer wg.Done()
			errs <- CastVote(voterID, c1.ID, time.Now())
		}(id)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("不同投票人的并发投票都应成功, got: %v", err)
		}
	}
	if got := candidateCount(t, c1.ID); got != voters {
		t.Errorf("计数应为%d（无丢失更新）, got %d", voters, got)
	}
}

func TestReconcileTallies(t *testing.T) {
	setupTestDB(t, "reconcile")

	c1 := createTestCandidate(t, "C1")
	c2 := createTestCandidate(t, "C2")
	c3 := createTestCandidate(t, "C3")

	// 直接向账本写入选票，模拟带外数据修复后的漂移
	for i := 0; i < 3; i++ {
		u := createTestVoter(t)
		if err := database.DB.Create(&Vote{VoterUUID: u, CandidateID: c1.ID}).Error; err != nil {
			t.Fatalf("无法写入账本: %v", err)
		}
	}
	u := createTestVoter(t)
	if err := database.DB.Create(&Vote{VoterUUID: u, CandidateID: c2.ID}).Error; err != nil {
		t.Fatalf("无法写入账本: %v", err)
	}

	// 人为破坏计数缓存
	database.DB.Model(&candidate.Candidate{}).Where("id = ?", c1.ID).UpdateColumn("vote_count", 99)
	database.DB.Model(&candidate.Candidate{}).Where("id = ?", c2.ID).UpdateColumn("vote_count", 0)

	// 归档的候选人同样参与对账
	if err := candidate.ArchiveCandidate(c3.ID); err != nil {
		t.Fatalf("归档失败: %v", err)
	}
	database.DB.Model(&candidate.Candidate{}).Where("id = ?", c3.ID).UpdateColumn("vote_count", 7)

	deltas, err := ReconcileTallies()
	if err != nil {
		t.Fatalf("对账失败: %v", err)
	}
	if len(deltas) != 3 {
		t.Fatalf("应有3位候选人被对账, got %d", len(deltas))
	}

	want := map[uint]struct{ old, new int }{
		c1.ID: {99, 3},
		c2.ID: {0, 1},
		c3.ID: {7, 0},
	}
	for _, d := range deltas {
		w, ok := want[d.ID]
		if !ok {
			t.Errorf("意外的候选人 %d 出现在对账结果中", d.ID)
			continue
		}
		if d.OldCount != w.old || d.NewCount != w.new {
			t.Errorf("候选人 %d: 期望 %d -> %d, got %d -> %d", d.ID, w.old, w.new, d.OldCount, d.NewCount)
		}
	}

	// 缓存必须被覆盖为账本的精确计数
	if got := candidateCount(t, c1.ID); got != 3 {
		t.Errorf("对账后C1计数应为3, got %d", got)
	}
	if got := candidateCount(t, c2.ID); got != 1 {
		t.Errorf("对账后C2计数应为1, got %d", got)
	}
	if got := candidateCount(t, c3.ID); got != 0 {
		t.Errorf("对账后C3计数应为0, got %d", got)
	}
}

func TestDeleteCandidatePermanently(t *testing.T) {
	setupTestDB(t, "permanent_delete")

	c1 := createTestCandidate(t, "C1")
	voters := make([]string, 3)
	for i := range voters {
		voters[i] = createTestVoter(t)
		if err := CastVote(voters[i], c1.ID, time.Now()); err != nil {
			t.Fatalf("投票失败: %v", err)
		}
	}

	if err := DeleteCandidatePermanently(c1.ID); err != nil {
		t.Fatalf("永久删除失败: %v", err)
	}

	// 候选人与其全部选票都已不可逆地消失
	var candCount int64
	database.DB.Unscoped().Model(&candidate.Candidate{}).Where("id = ?", c1.ID).Count(&candCount)
	if candCount != 0 {
		t.Error("候选人应已被硬删除")
	}
	var ledgerCount int64
	database.DB.Model(&Vote{}).Where("candidate_id = ?", c1.ID).Count(&ledgerCount)
	if ledgerCount != 0 {
		t.Errorf("级联删除后账本中不应有该候选人的选票, got %d", ledgerCount)
	}

	// 受影响的投票人不会重新获得投票资格
	c2 := createTestCandidate(t, "C2")
	for _, id := range voters {
		v, err := voter.GetVoter(database.DB, id)
		if err != nil {
			t.Fatalf("无法读取投票人: %v", err)
		}
		if !v.HasVoted {
			t.Errorf("投票人 %s 的HasVoted不应被重置", id)
		}

		status, err := GetVoteStatus(id)
		if err != nil {
			t.Fatalf("无法读取投票状态: %v", err)
		}
		if !status.HasVoted || status.CandidateID != nil {
			t.Errorf("状态应为已投票但目标为空, got %+v", status)
		}

		if err := CastVote(id, c2.ID, time.Now()); !errors.Is(err, ErrAlreadyVoted) {
			t.Errorf("已投票的投票人不应能再次投票, got: %v", err)
		}
	}

	if err := DeleteCandidatePermanently(c1.ID); !errors.Is(err, candidate.ErrCandidateNotFound) {
		t.Errorf("重复删除应返回ErrCandidateNotFound, got: %v", err)
	}
}

func TestArchiveRestoreKeepsTally(t *testing.T) {
	setupTestDB(t, "archive_restore")

	c1 := createTestCandidate(t, "C1")
	u1 := createTestVoter(t)
	if err := CastVote(u1, c1.ID, time.Now()); err != nil {
		t.Fatalf("投票失败: %v", err)
	}

	if err := candidate.ArchiveCandidate(c1.ID); err != nil {
		t.Fatalf("归档失败: %v", err)
	}
	if got := candidateCount(t, c1.ID); got != 1 {
		t.Errorf("归档不应影响计数, got %d", got)
	}

	// 归档期间不可作为投票目标
	u2 := createTestVoter(t)
	if err := CastVote(u2, c1.ID, time.Now()); !errors.Is(err, candidate.ErrCandidateNotFound) {
		t.Fatalf("归档候选人不应可投, got: %v", err)
	}

	restored, err := candidate.RestoreCandidate(c1.ID)
	if err != nil {
		t.Fatalf("恢复失败: %v", err)
	}
	if restored.VoteCount != 1 {
		t.Errorf("恢复后计数应保持1, got %d", restored.VoteCount)
	}
	if restored.IsArchived || restored.ArchivedAt != nil {
		t.Errorf("恢复后归档标记应被清除, got %+v", restored)
	}

	// 恢复后重新成为合法目标，计数在原有基础上继续累积
	if err := CastVote(u2, c1.ID, time.Now()); err != nil {
		t.Fatalf("恢复后投票应成功, got: %v", err)
	}
	if got := candidateCount(t, c1.ID); got != 2 {
		t.Errorf("计数应为2, got %d", got)
	}
}

func TestRemoveVoter(t *testing.T) {
	setupTestDB(t, "remove_voter")

	c1 := createTestCandidate(t, "C1")
	u1 := createTestVoter(t)
	u2 := createTestVoter(t)
	if err := CastVote(u1, c1.ID, time.Now()); err != nil {
		t.Fatalf("投票失败: %v", err)
	}
	if err := CastVote(u2, c1.ID, time.Now()); err != nil {
		t.Fatalf("投票失败: %v", err)
	}

	if err := RemoveVoter(u1); err != nil {
		t.Fatalf("移除投票人失败: %v", err)
	}

	// 选票、状态、计数在同一个事务中一并回退
	if _, err := voter.GetVoter(database.DB, u1); !errors.Is(err, voter.ErrVoterNotFound) {
		t.Errorf("投票人记录应已删除, got: %v", err)
	}
	var ledgerCount int64
	database.DB.Model(&Vote{}).Where("voter_uuid = ?", u1).Count(&ledgerCount)
	if ledgerCount != 0 {
		t.Error("该投票人的选票应已删除")
	}
	if got := candidateCount(t, c1.ID); got != 1 {
		t.Errorf("计数应回退到1, got %d", got)
	}

	// 未投票的投票人可以直接移除
	u3 := createTestVoter(t)
	if err := RemoveVoter(u3); err != nil {
		t.Fatalf("移除未投票的投票人失败: %v", err)
	}

	if err := RemoveVoter(uuid.NewString()); !errors.Is(err, voter.ErrVoterNotFound) {
		t.Errorf("移除不存在的投票人应返回ErrVoterNotFound, got: %v", err)
	}
}
