package racematch

import (
	"strings"

	"github.com/stridelog/server/pkg/domain/geo"
)

// cityCoordinates maps Chinese host cities to an approximate downtown
// reference coordinate. Race start lines sit well within the 50 km
// proximity radius of these.
var cityCoordinates = map[string]geo.Point{
	"北京":   {Lat: 39.9042, Lon: 116.4074},
	"上海":   {Lat: 31.2304, Lon: 121.4737},
	"天津":   {Lat: 39.3434, Lon: 117.3616},
	"重庆":   {Lat: 29.5630, Lon: 106.5516},
	"广州":   {Lat: 23.1291, Lon: 113.2644},
	"深圳":   {Lat: 22.5431, Lon: 114.0579},
	"杭州":   {Lat: 30.2741, Lon: 120.1551},
	"南京":   {Lat: 32.0603, Lon: 118.7969},
	"苏州":   {Lat: 31.2989, Lon: 120.5853},
	"无锡":   {Lat: 31.4912, Lon: 120.3119},
	"常州":   {Lat: 31.8107, Lon: 119.9740},
	"武汉":   {Lat: 30.5928, Lon: 114.3055},
	"成都":   {Lat: 30.5728, Lon: 104.0668},
	"西安":   {Lat: 34.3416, Lon: 108.9398},
	"郑州":   {Lat: 34.7466, Lon: 113.6254},
	"长沙":   {Lat: 28.2282, Lon: 112.9388},
	"合肥":   {Lat: 31.8206, Lon: 117.2272},
	"福州":   {Lat: 26.0745, Lon: 119.2965},
	"厦门":   {Lat: 24.4798, Lon: 118.0894},
	"南昌":   {Lat: 28.6820, Lon: 115.8579},
	"济南":   {Lat: 36.6512, Lon: 117.1201},
	"青岛":   {Lat: 36.0671, Lon: 120.3826},
	"烟台":   {Lat: 37.4638, Lon: 121.4479},
	"威海":   {Lat: 37.5128, Lon: 122.1201},
	"石家庄":  {Lat: 38.0428, Lon: 114.5149},
	"太原":   {Lat: 37.8706, Lon: 112.5489},
	"呼和浩特": {Lat: 40.8426, Lon: 111.7490},
	"沈阳":   {Lat: 41.8057, Lon: 123.4315},
	"大连":   {Lat: 38.9140, Lon: 121.6147},
	"长春":   {Lat: 43.8171, Lon: 125.3235},
	"哈尔滨":  {Lat: 45.8038, Lon: 126.5349},
	"南宁":   {Lat: 22.8170, Lon: 108.3665},
	"海口":   {Lat: 20.0444, Lon: 110.1999},
	"三亚":   {Lat: 18.2528, Lon: 109.5119},
	"贵阳":   {Lat: 26.6470, Lon: 106.6302},
	"昆明":   {Lat: 24.8801, Lon: 102.8329},
	"拉萨":   {Lat: 29.6520, Lon: 91.1721},
	"兰州":   {Lat: 36.0611, Lon: 103.8343},
	"西宁":   {Lat: 36.6171, Lon: 101.7782},
	"银川":   {Lat: 38.4872, Lon: 106.2309},
	"乌鲁木齐": {Lat: 43.8256, Lon: 87.6168},
	"宁波":   {Lat: 29.8683, Lon: 121.5440},
	"温州":   {Lat: 27.9938, Lon: 120.6994},
	"嘉兴":   {Lat: 30.7522, Lon: 120.7500},
	"绍兴":   {Lat: 30.0023, Lon: 120.5810},
	"金华":   {Lat: 29.1028, Lon: 119.6478},
	"衢州":   {Lat: 28.9359, Lon: 118.8742},
	"舟山":   {Lat: 30.0360, Lon: 122.2070},
	"台州":   {Lat: 28.6561, Lon: 121.4205},
	"丽水":   {Lat: 28.4672, Lon: 119.9229},
	"义乌":   {Lat: 29.3069, Lon: 120.0753},
	"徐州":   {Lat: 34.2044, Lon: 117.2857},
	"南通":   {Lat: 31.9802, Lon: 120.8943},
	"连云港":  {Lat: 34.5967, Lon: 119.2215},
	"淮安":   {Lat: 33.5975, Lon: 119.0213},
	"盐城":   {Lat: 33.3477, Lon: 120.1635},
	"扬州":   {Lat: 32.3932, Lon: 119.4129},
	"镇江":   {Lat: 32.1879, Lon: 119.4251},
	"泰州":   {Lat: 32.4849, Lon: 119.9062},
	"宿迁":   {Lat: 33.9630, Lon: 118.2751},
	"芜湖":   {Lat: 31.3526, Lon: 118.4331},
	"蚌埠":   {Lat: 32.9397, Lon: 117.3573},
	"黄山":   {Lat: 29.7147, Lon: 118.3376},
	"安庆":   {Lat: 30.5434, Lon: 117.0635},
	"阜阳":   {Lat: 32.8897, Lon: 115.8142},
	"六安":   {Lat: 31.7337, Lon: 116.5225},
	"滁州":   {Lat: 32.3017, Lon: 118.3178},
	"马鞍山":  {Lat: 31.6704, Lon: 118.5062},
	"泉州":   {Lat: 24.8741, Lon: 118.6758},
	"漳州":   {Lat: 24.5130, Lon: 117.6471},
	"莆田":   {Lat: 25.4540, Lon: 119.0078},
	"龙岩":   {Lat: 25.0752, Lon: 117.0174},
	"三明":   {Lat: 26.2634, Lon: 117.6389},
	"南平":   {Lat: 26.6418, Lon: 118.1777},
	"宁德":   {Lat: 26.6656, Lon: 119.5478},
	"赣州":   {Lat: 25.8310, Lon: 114.9350},
	"九江":   {Lat: 29.7050, Lon: 116.0019},
	"景德镇":  {Lat: 29.2688, Lon: 117.1784},
	"上饶":   {Lat: 28.4549, Lon: 117.9434},
	"吉安":   {Lat: 27.1138, Lon: 114.9927},
	"宜春":   {Lat: 27.8162, Lon: 114.4170},
	"萍乡":   {Lat: 27.6229, Lon: 113.8545},
	"淄博":   {Lat: 36.8131, Lon: 118.0548},
	"潍坊":   {Lat: 36.7069, Lon: 119.1618},
	"济宁":   {Lat: 35.4154, Lon: 116.5871},
	"泰安":   {Lat: 36.2001, Lon: 117.0884},
	"日照":   {Lat: 35.4164, Lon: 119.5269},
	"临沂":   {Lat: 35.1042, Lon: 118.3564},
	"德州":   {Lat: 37.4341, Lon: 116.3575},
	"东营":   {Lat: 37.4346, Lon: 118.6747},
	"洛阳":   {Lat: 34.6197, Lon: 112.4540},
	"开封":   {Lat: 34.7971, Lon: 114.3074},
	"安阳":   {Lat: 36.0977, Lon: 114.3931},
	"新乡":   {Lat: 35.3036, Lon: 113.9268},
	"焦作":   {Lat: 35.2158, Lon: 113.2418},
	"南阳":   {Lat: 32.9908, Lon: 112.5283},
	"襄阳":   {Lat: 32.0090, Lon: 112.1226},
	"宜昌":   {Lat: 30.6919, Lon: 111.2865},
	"荆州":   {Lat: 30.3349, Lon: 112.2413},
	"十堰":   {Lat: 32.6293, Lon: 110.7981},
	"岳阳":   {Lat: 29.3570, Lon: 113.1289},
	"常德":   {Lat: 29.0316, Lon: 111.6983},
	"株洲":   {Lat: 27.8274, Lon: 113.1340},
	"湘潭":   {Lat: 27.8294, Lon: 112.9443},
	"衡阳":   {Lat: 26.8937, Lon: 112.5719},
	"韶关":   {Lat: 24.8108, Lon: 113.5972},
	"惠州":   {Lat: 23.1115, Lon: 114.4161},
	"东莞":   {Lat: 23.0207, Lon: 113.7518},
	"中山":   {Lat: 22.5176, Lon: 113.3928},
	"珠海":   {Lat: 22.2707, Lon: 113.5767},
	"佛山":   {Lat: 23.0218, Lon: 113.1219},
	"江门":   {Lat: 22.5789, Lon: 113.0815},
	"湛江":   {Lat: 21.2707, Lon: 110.3594},
	"汕头":   {Lat: 23.3541, Lon: 116.6819},
	"清远":   {Lat: 23.6817, Lon: 113.0561},
	"梅州":   {Lat: 24.2886, Lon: 116.1222},
	"河源":   {Lat: 23.7437, Lon: 114.7008},
	"茂名":   {Lat: 21.6632, Lon: 110.9254},
	"肇庆":   {Lat: 23.0466, Lon: 112.4651},
	"潮州":   {Lat: 23.6618, Lon: 116.6220},
	"桂林":   {Lat: 25.2736, Lon: 110.2900},
	"柳州":   {Lat: 24.3146, Lon: 109.4283},
	"北海":   {Lat: 21.4810, Lon: 109.1201},
	"遵义":   {Lat: 27.7256, Lon: 106.9270},
	"曲靖":   {Lat: 25.4898, Lon: 103.7964},
	"大理":   {Lat: 25.6065, Lon: 100.2676},
	"丽江":   {Lat: 26.8550, Lon: 100.2260},
	"腾冲":   {Lat: 25.0209, Lon: 98.4902},
	"绵阳":   {Lat: 31.4675, Lon: 104.6796},
	"乐山":   {Lat: 29.5521, Lon: 103.7657},
	"宜宾":   {Lat: 28.7513, Lon: 104.6417},
	"泸州":   {Lat: 28.8717, Lon: 105.4422},
	"南充":   {Lat: 30.8373, Lon: 106.1106},
	"达州":   {Lat: 31.2093, Lon: 107.4678},
	"攀枝花":  {Lat: 26.5823, Lon: 101.7184},
	"咸阳":   {Lat: 34.3296, Lon: 108.7093},
	"宝鸡":   {Lat: 34.3633, Lon: 107.2372},
	"延安":   {Lat: 36.5853, Lon: 109.4898},
	"榆林":   {Lat: 38.2852, Lon: 109.7348},
	"汉中":   {Lat: 33.0677, Lon: 107.0232},
	"天水":   {Lat: 34.5809, Lon: 105.7249},
	"敦煌":   {Lat: 40.1421, Lon: 94.6620},
	"张掖":   {Lat: 38.9259, Lon: 100.4498},
	"吐鲁番":  {Lat: 42.9513, Lon: 89.1895},
	"包头":   {Lat: 40.6574, Lon: 109.8404},
	"鄂尔多斯": {Lat: 39.6086, Lon: 109.7810},
	"秦皇岛":  {Lat: 39.9354, Lon: 119.6005},
	"唐山":   {Lat: 39.6305, Lon: 118.1804},
	"保定":   {Lat: 38.8740, Lon: 115.4646},
	"邯郸":   {Lat: 36.6256, Lon: 114.5391},
	"廊坊":   {Lat: 39.5376, Lon: 116.6837},
	"衡水":   {Lat: 37.7389, Lon: 115.6706},
	"张家口":  {Lat: 40.7686, Lon: 114.8860},
	"承德":   {Lat: 40.9515, Lon: 117.9634},
	"大同":   {Lat: 40.0768, Lon: 113.3001},
	"晋中":   {Lat: 37.6870, Lon: 112.7530},
	"运城":   {Lat: 35.0263, Lon: 111.0070},
	"吉林":   {Lat: 43.8378, Lon: 126.5496},
	"延吉":   {Lat: 42.9048, Lon: 129.5090},
	"鞍山":   {Lat: 41.1087, Lon: 122.9946},
	"丹东":   {Lat: 40.0005, Lon: 124.3547},
	"锦州":   {Lat: 41.0954, Lon: 121.1270},
	"营口":   {Lat: 40.6674, Lon: 122.2353},
	"齐齐哈尔": {Lat: 47.3543, Lon: 123.9180},
	"牡丹江":  {Lat: 44.5526, Lon: 129.6330},
	"大庆":   {Lat: 46.5896, Lon: 125.1031},
	"香港":   {Lat: 22.3193, Lon: 114.1694},
	"澳门":   {Lat: 22.1987, Lon: 113.5439},
}

// CityFromRaceName extracts the host city by matching gazetteer entries
// against the race name, preferring the longest match.
func CityFromRaceName(name string) (string, bool) {
	var best string
	for city := range cityCoordinates {
		if strings.Contains(name, city) && len(city) > len(best) {
			best = city
		}
	}
	return best, best != ""
}

// CityFromLocation parses a "province·city" location string. The
// separator varies across listing pages.
func CityFromLocation(location string) (string, bool) {
	for _, sep := range []string{"·", "・", "•"} {
		location = strings.ReplaceAll(location, sep, "|")
	}
	parts := strings.Split(location, "|")
	last := strings.TrimSpace(parts[len(parts)-1])
	last = strings.TrimSuffix(last, "市")
	last = strings.TrimSuffix(last, "县")
	if last == "" {
		return "", false
	}
	if _, ok := cityCoordinates[last]; ok {
		return last, true
	}
	// Location strings sometimes embed district names; fall back to
	// the same containment match used for race names.
	return CityFromRaceName(last)
}

// CityCoordinate returns the reference coordinate for a gazetteer city.
func CityCoordinate(city string) (geo.Point, bool) {
	p, ok := cityCoordinates[city]
	return p, ok
}
