package candidate

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/SlpAus/campus-election-backend/internal/platform/database"
	"github.com/redis/go-redis/v9"
)

// --- Redis-specific Definitions ---
// 这些定义描述了本模块管理的结果镜像。
// 镜像只服务于高频的结果读取，可随时从SQL事实来源重建。

const (
	// InfoKey 是一个Redis Hash，存储所有在榜候选人的静态展示数据
	InfoKey = "candidate:info"
	// ResultsKey 是一个Redis Sorted Set，按得票数实时排序候选人
	ResultsKey = "candidate:results"
)

// CandidateInfo 定义了在Redis candidate:info Hash中存储的展示数据
type CandidateInfo struct {
	Name     string `json:"name"`
	ImageURL string `json:"imageUrl"`
}

// mirrorAvailable 判断结果镜像当前是否可用。
// Redis不可用时所有镜像操作都会被跳过，读取方退回SQL查询。
func mirrorAvailable() bool {
	return database.RDB != nil && database.IsRedisHealthy()
}

// WarmupMirror 从SQL加载所有未归档候选人的数据，整体重建Redis镜像。
// 注意：此函数不加锁，调用方需要确保在安全的时机（如启动或健康恢复）调用。
func WarmupMirror() error {
	if database.RDB == nil {
		return nil
	}

	var candidates []Candidate
	if err := database.DB.Where("is_archived = ?", false).Find(&candidates).Error; err != nil {
		return fmt.Errorf("无法从数据库读取候选人数据: %w", err)
	}

	pipe := database.RDB.Pipeline()
	// 镜像是可丢弃的，整体清空后重建
	pipe.Del(database.Ctx, InfoKey, ResultsKey)

	for _, cand := range candidates {
		info := CandidateInfo{
			Name:     cand.Name,
			ImageURL: cand.ImageURL,
		}
		infoJSON, _ := json.Marshal(info)
		field := strconv.FormatUint(uint64(cand.ID), 10)
		pipe.HSet(database.Ctx, InfoKey, field, infoJSON)
		pipe.ZAdd(database.Ctx, ResultsKey, redis.Z{
			Score:  float64(cand.VoteCount),
			Member: field,
		})
	}

	if _, err := pipe.Exec(database.Ctx); err != nil {
		return fmt.Errorf("预热候选人结果镜像失败: %w", err)
	}

	fmt.Printf("成功预热 %d 位候选人的结果镜像到Redis。\n", len(candidates))
	return nil
}

// AddToMirror 将单个候选人写入镜像，用于新建和恢复归档。
// 镜像写入是尽力而为的，失败只记录日志，不影响SQL事实。
func AddToMirror(cand *Candidate) {
	if !mirrorAvailable() {
		return
	}

	info := CandidateInfo{Name: cand.Name, ImageURL: cand.ImageURL}
	infoJSON, _ := json.Marshal(info)
	field := strconv.FormatUint(uint64(cand.ID), 10)

	pipe := database.RDB.Pipeline()
	pipe.HSet(database.Ctx, InfoKey, field, infoJSON)
	pipe.ZAdd(database.Ctx, ResultsKey, redis.Z{Score: float64(cand.VoteCount), Member: field})
	if _, err := pipe.Exec(database.Ctx); err != nil {
		fmt.Printf("警告: 无法将候选人 %d 写入结果镜像: %v\n", cand.ID, err)
	}
}

// RemoveFromMirror 将单个候选人移出镜像，用于归档和永久删除。
func RemoveFromMirror(id uint) {
	if !mirrorAvailable() {
		return
	}

	field := strconv.FormatUint(uint64(id), 10)
	pipe := database.RDB.Pipeline()
	pipe.HDel(database.Ctx, InfoKey, field)
	pipe.ZRem(database.Ctx, ResultsKey, field)
	if _, err := pipe.Exec(database.Ctx); err != nil {
		fmt.Printf("警告: 无法将候选人 %d 移出结果镜像: %v\n", id, err)
	}
}

// AdjustMirrorCount 在一笔账本事务提交成功后，按增量调整镜像中的计数。
// 任何漂移都会在下一次预热或对账时被绝对值覆盖纠正。
func AdjustMirrorCount(id uint, delta int) {
	if !mirrorAvailable() {
		return
	}

	field := strconv.FormatUint(uint64(id), 10)
	if err := database.RDB.ZIncrBy(database.Ctx, ResultsKey, float64(delta), field).Err(); err != nil {
		fmt.Printf("警告: 无法更新候选人 %d 的镜像计数: %v\n", id, err)
	}
}

// SetMirrorCount 将镜像中的计数覆盖为给定的绝对值，供对账任务使用。
func SetMirrorCount(id uint, count int) {
	if !mirrorAvailable() {
		return
	}

	field := strconv.FormatUint(uint64(id), 10)
	// XX: 只更新已在镜像中的成员，归档候选人不会被意外加回榜单
	err := database.RDB.ZAddXX(database.Ctx, ResultsKey, redis.Z{
		Score:  float64(count),
		Member: field,
	}).Err()
	if err != nil {
		fmt.Printf("警告: 无法覆盖候选人 %d 的镜像计数: %v\n", id, err)
	}
}

// ReadMirrorResults 从镜像中读取按得票数降序的结果列表。
// 返回的第二个值指示镜像是否可用且读取成功。
func ReadMirrorResults() ([]ResultEntry, bool) {
	if !mirrorAvailable() {
		return nil, false
	}

	zs, err := database.RDB.ZRevRangeWithScores(database.Ctx, ResultsKey, 0, -1).Result()
	if err != nil {
		fmt.Printf("警告: 无法从Redis读取结果镜像: %v\n", err)
		return nil, false
	}
	if len(zs) == 0 {
		// 空镜像无法与"未预热"区分，交给SQL兜底
		return nil, false
	}

	fields := make([]string, len(zs))
	for i, z := range zs {
		fields[i] = z.Member.(string)
	}
	infoJSONs, err := database.RDB.HMGet(database.Ctx, InfoKey, fields...).Result()
	if err != nil {
		fmt.Printf("警告: 无法从Redis读取候选人展示数据: %v\n", err)
		return nil, false
	}

	results := make([]ResultEntry, 0, len(zs))
	for i, z := range zs {
		if infoJSONs[i] == nil {
			continue
		}
		var info CandidateInfo
		if err := json.Unmarshal([]byte(infoJSONs[i].(string)), &info); err != nil {
			continue
		}
		id, err := strconv.ParseUint(fields[i], 10, 32)
		if err != nil {
			continue
		}
		results = append(results, ResultEntry{
			ID:        uint(id),
			Name:      info.Name,
			ImageURL:  info.ImageURL,
			VoteCount: int(z.Score),
		})
	}
	return results, true
}
