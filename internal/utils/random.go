package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	mrand "math/rand"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/mozillazg/go-pinyin"
	"github.com/sysu-ecnc-dev/asset-manager/backend/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

var commonSurnames = []string{
	"王", "李", "张", "刘", "陈", "杨", "赵", "黄", "周", "吴",
	"徐", "孙", "胡", "朱", "高", "林", "何", "郭", "马", "罗",
}
var commonNameCharacters = []string{
	"伟", "强", "芳", "敏", "静", "丽", "刚", "杰", "娟", "勇",
	"艳", "涛", "明", "军", "磊", "洋", "勇", "霞", "飞", "玲",
	"超", "华", "平", "辉", "梅", "鑫", "龙", "鹏", "玉", "斌",
	"庆", "建", "丹", "彬", "凤", "旭", "宁", "乐", "成", "欣",
}
var departments = []string{"信息中心", "网络组", "运维组", "财务处", "行政办公室"}

func GenerateRandomChineseName() string {
	surname := commonSurnames[mrand.Intn(len(commonSurnames))]
	nameLength := mrand.Intn(2) + 1
	name := ""

	for i := 0; i < nameLength; i++ {
		name += commonNameCharacters[mrand.Intn(len(commonNameCharacters))]
	}
	return surname + name
}

var digits = "0123456789"

func GenerateUsernameFromChineseName(chineseName string) string {
	pinyinArray := pinyin.LazyConvert(chineseName, nil)
	username := ""

	for _, py := range pinyinArray {
		length := mrand.Intn(len(py)) + 1
		username += py[:length]
	}

	digitsLength := mrand.Intn(3) + 1
	for i := 0; i < digitsLength; i++ {
		username += string(digits[mrand.Intn(len(digits))])
	}

	return username
}

func GenerateRandomUser(password string, emailDomainName string) (*domain.User, error) {
	realName := GenerateRandomChineseName()
	username := GenerateUsernameFromChineseName(realName)
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:     username,
		PasswordHash: string(passwordHash),
		Role:         domain.RoleUser,
		RealName:     realName,
		Email:        username + "@" + emailDomainName,
		Phone:        gofakeit.Numerify("1##########"),
		Department:   departments[mrand.Intn(len(departments))],
		Status:       domain.UserStatusActive,
	}

	return user, nil
}

var assetStatuses = []domain.AssetStatus{
	domain.AssetStatusInUse,
	domain.AssetStatusAvailable,
	domain.AssetStatusMaintenance,
	domain.AssetStatusDisposed,
}

var commonPorts = []string{"22", "80", "443", "3306", "5432", "6379", "8080", "161"}

// GenerateRandomAsset 生成一条随机资产，assignees 为空时不分配使用人
func GenerateRandomAsset(category *domain.Category, assignees []*domain.User) *domain.Asset {
	price := gofakeit.Price(500, 50000)
	current := price * gofakeit.Float64Range(0.1, 1)
	now := time.Now()
	addDate := gofakeit.DateRange(now.AddDate(-5, 0, 0), now).Format("2006-01-02")

	ports := make([]string, 0, 3)
	for _, i := range mrand.Perm(len(commonPorts))[:mrand.Intn(3)+1] {
		ports = append(ports, commonPorts[i])
	}

	asset := &domain.Asset{
		Name:          fmt.Sprintf("%s-%s", category.Name, gofakeit.LetterN(4)),
		CategoryID:    &category.ID,
		Status:        assetStatuses[mrand.Intn(len(assetStatuses))],
		IPAddress:     gofakeit.IPv4Address(),
		Port:          JoinPorts(ports),
		Location:      fmt.Sprintf("机房%c-%02d", 'A'+rune(mrand.Intn(4)), mrand.Intn(20)+1),
		AddDate:       &addDate,
		PurchasePrice: ptr(fmt.Sprintf("%.2f", price)),
		CurrentValue:  ptr(fmt.Sprintf("%.2f", current)),
		Remarks:       gofakeit.Sentence(6),
	}
	if len(assignees) > 0 {
		asset.AssignedTo = &assignees[mrand.Intn(len(assignees))].ID
	}

	return asset
}

func ptr(s string) *string { return &s }

// GenerateRandomOTP 生成 6 位数字验证码
func GenerateRandomOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
